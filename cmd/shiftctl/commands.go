package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/shift-availability/internal/auth"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/persistence"
	"github.com/spec-kit/shift-availability/internal/service"
)

type weekFlags struct {
	business  string
	weekStart string
	weekEnd   string
}

func (f *weekFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.business, "business", "", "business id")
	cmd.Flags().StringVar(&f.weekStart, "week-start", "", "first day of the week (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.weekEnd, "week-end", "", "last day of the week (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("week-start")
	_ = cmd.MarkFlagRequired("week-end")
}

func (f *weekFlags) week() (domain.Week, error) {
	return service.ParseWeek(f.weekStart, f.weekEnd)
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()
			if rt.cfg.Postgres.DSN == "" {
				return persistence.ErrMissingDSN
			}
			return persistence.RunMigrations(cmd.Context(), rt.cfg.Postgres.DSN, rt.logger)
		},
	}
}

func cleanupCommand() *cobra.Command {
	var flags weekFlags
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete superseded tokens of a week, keeping the newest per employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			week, err := flags.week()
			if err != nil {
				return err
			}
			rt, err := loadRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			removed, err := rt.tokenService().CleanupDuplicates(cmd.Context(), flags.business, week)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d duplicate token(s)\n", removed)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func reissueCommand() *cobra.Command {
	var flags weekFlags
	cmd := &cobra.Command{
		Use:   "reissue",
		Short: "Delete every token of a week and issue fresh ones to active employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			week, err := flags.week()
			if err != nil {
				return err
			}
			rt, err := loadRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.tokenService().ResetAndReissue(cmd.Context(), flags.business, week)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d token(s), issued %d\n", result.Deleted, len(result.Issued))
			for _, t := range result.Issued {
				employee := "-"
				if t.EmployeeID != nil {
					employee = *t.EmployeeID
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s/%s\n", employee, rt.cfg.Reminder.PublicBaseURL, t.Secret)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func sharedTokenCommand() *cobra.Command {
	var flags weekFlags
	cmd := &cobra.Command{
		Use:   "shared-token",
		Short: "Issue a business-wide availability link for a week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			week, err := flags.week()
			if err != nil {
				return err
			}
			rt, err := loadRuntime(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close()

			token, err := rt.tokenService().IssueBusinessWide(cmd.Context(), flags.business, week)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s/%s\n", token.ID, rt.cfg.Reminder.PublicBaseURL, token.Secret)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func adminTokenCommand() *cobra.Command {
	var (
		subject  string
		business string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "admin-token",
		Short: "Mint a bearer token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if business == "" && role != auth.RoleSuperAdmin {
				return errors.New("--business is required unless --role is " + auth.RoleSuperAdmin)
			}
			rt, err := loadRuntime(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			token, err := auth.NewTokenManager(rt.cfg.Auth.JWTSecret, rt.cfg.Auth.Issuer).
				GenerateToken(subject, business, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "operator", "token subject")
	cmd.Flags().StringVar(&business, "business", "", "business id the token is scoped to")
	cmd.Flags().StringVar(&role, "role", "admin", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
