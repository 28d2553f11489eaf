package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/persistence"
	"github.com/spec-kit/shift-availability/internal/repository"
	"github.com/spec-kit/shift-availability/internal/service"
)

const programName = "shiftctl"

var globalFlags = struct {
	debug bool
}{}

// toolEnv holds what the maintenance commands share.
type toolEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	pg     *persistence.Postgres
}

func (r *toolEnv) Close() {
	r.pg.Close()
	_ = r.logger.Sync()
}

func loadRuntime(ctx context.Context, connect bool) (*toolEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if globalFlags.debug {
		cfg.Logger.Level = "debug"
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(zap.String("component", programName))

	rt := &toolEnv{cfg: cfg, logger: logger}
	if connect {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		rt.pg = pg
	}
	return rt, nil
}

// tokenService builds a token service whose events land in the audit log.
func (r *toolEnv) tokenService() *service.TokenService {
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, r.logger).RegisterHandlers()

	pool := r.pg.PoolHandle()
	return service.NewTokenService(service.TokenDependencies{
		TokenRepo:     repository.NewTokenRepository(pool),
		DirectoryRepo: repository.NewDirectoryRepository(pool),
		Dispatcher:    dispatcher,
		Logger:        r.logger,
		Config:        r.cfg.Token,
	})
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Maintenance commands for the shift availability service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		migrateCommand(),
		cleanupCommand(),
		reissueCommand(),
		sharedTokenCommand(),
		adminTokenCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
