package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/repository"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

// SubmissionService records employee availability against a token.
type SubmissionService struct {
	tokens      repository.TokenRepository
	submissions repository.SubmissionRepository
	directory   repository.DirectoryRepository
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	tokenCfg    config.TokenConfig
	cfg         config.SubmissionConfig
	now         func() time.Time
}

// SubmissionDependencies bundles collaborators for the submission service.
type SubmissionDependencies struct {
	TokenRepo      repository.TokenRepository
	SubmissionRepo repository.SubmissionRepository
	DirectoryRepo  repository.DirectoryRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	TokenConfig    config.TokenConfig
	Config         config.SubmissionConfig
	Now            func() time.Time
}

// PreferenceInput is one submitted slot as received from the client.
type PreferenceInput struct {
	Date             string
	StartTime        string
	EndTime          string
	CrossMidnight    bool
	BranchPreference string
	RolePreference   *string
	ShiftTypeID      *string
}

// SubmissionInput is the complete answer of an employee for the week.
type SubmissionInput struct {
	Preferences                 []PreferenceInput
	Notes                       string
	OptionalMorningAvailability []bool
}

// SubmitResult carries the stored submission and any tolerated oddities.
type SubmitResult struct {
	Submission *domain.Submission
	Warnings   []domain.PreferenceWarning
}

// Submission outcomes used as metric labels.
const (
	outcomeAccepted      = "accepted"
	outcomeInvalid       = "invalid"
	outcomeTokenRejected = "token_rejected"
)

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	s := &SubmissionService{
		tokens:      deps.TokenRepo,
		submissions: deps.SubmissionRepo,
		directory:   deps.DirectoryRepo,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		tokenCfg:    deps.TokenConfig,
		cfg:         deps.Config,
		now:         deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = nowUTC
	}
	return s
}

// Submit validates input and replaces the token's submission for its
// target week. Nothing is written unless the whole input is valid and the
// token is still usable when the write runs.
func (s *SubmissionService) Submit(ctx context.Context, secret string, input SubmissionInput) (*SubmitResult, error) {
	now := s.now()
	token, err := resolveUsableToken(ctx, s.tokens, secret, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenExpired) {
			s.metrics.SubmissionRecorded(outcomeTokenRejected)
		}
		return nil, err
	}
	week := token.TargetWeek(now, s.tokenCfg.WeekStartDay)

	prefs, err := s.validate(week, input)
	if err != nil {
		s.metrics.SubmissionRecorded(outcomeInvalid)
		return nil, err
	}
	warnings, err := s.collectWarnings(ctx, token.BusinessID, prefs)
	if err != nil {
		return nil, err
	}

	tokenID := token.ID
	sub := &domain.Submission{
		TokenID:                     &tokenID,
		BusinessID:                  token.BusinessID,
		EmployeeID:                  token.EmployeeID,
		Week:                        week,
		Preferences:                 prefs,
		Notes:                       strings.TrimSpace(input.Notes),
		OptionalMorningAvailability: input.OptionalMorningAvailability,
	}
	if err := s.submissions.Record(ctx, sub, now); err != nil {
		if errors.Is(err, repository.ErrTokenUnusable) {
			s.metrics.SubmissionRecorded(outcomeTokenRejected)
			return nil, apperrors.NewTokenExpired(map[string]any{"reason": "revoked or expired during submission"})
		}
		return nil, fmt.Errorf("record submission: %w", err)
	}
	s.metrics.SubmissionRecorded(outcomeAccepted)

	s.logger.Info("availability submitted",
		zap.String("business_id", sub.BusinessID),
		zap.String("token_id", tokenID),
		zap.String("week", week.String()),
		zap.Int("preferences", len(prefs)),
		zap.Int("warnings", len(warnings)))
	s.publish(ctx, sub, len(warnings))

	return &SubmitResult{Submission: sub, Warnings: warnings}, nil
}

// validate converts input into preferences, collecting every problem as a
// field-level detail.
func (s *SubmissionService) validate(week domain.Week, input SubmissionInput) ([]domain.ShiftPreference, error) {
	details := map[string]any{}

	if s.cfg.MaxPreferences > 0 && len(input.Preferences) > s.cfg.MaxPreferences {
		details["preferences"] = fmt.Sprintf("at most %d preferences allowed", s.cfg.MaxPreferences)
	}
	if s.cfg.MaxNotesLength > 0 && utf8.RuneCountInString(input.Notes) > s.cfg.MaxNotesLength {
		details["notes"] = fmt.Sprintf("must be at most %d characters", s.cfg.MaxNotesLength)
	}
	if n := len(input.OptionalMorningAvailability); n != 0 && n != week.Len() {
		details["optional_morning_availability"] = fmt.Sprintf("must be empty or hold %d flags", week.Len())
	}

	prefs := make([]domain.ShiftPreference, 0, len(input.Preferences))
	for i, in := range input.Preferences {
		field := func(name string) string { return fmt.Sprintf("preferences[%d].%s", i, name) }
		pref := domain.ShiftPreference{
			CrossMidnight:    in.CrossMidnight,
			BranchPreference: strings.TrimSpace(in.BranchPreference),
			RolePreference:   trimmedOrNil(in.RolePreference),
			ShiftTypeID:      trimmedOrNil(in.ShiftTypeID),
		}
		valid := true

		date, err := domain.ParseDate(in.Date)
		switch {
		case err != nil:
			details[field("date")] = "must be a date in YYYY-MM-DD format"
			valid = false
		case !week.Contains(date):
			details[field("date")] = fmt.Sprintf("must fall within %s", week)
			valid = false
		default:
			pref.Date = date
		}

		start, startErr := domain.ParseClock(in.StartTime)
		if startErr != nil {
			details[field("start_time")] = "must be a time in HH:MM format"
			valid = false
		}
		end, endErr := domain.ParseClock(in.EndTime)
		if endErr != nil {
			details[field("end_time")] = "must be a time in HH:MM format"
			valid = false
		}
		if startErr == nil && endErr == nil {
			switch {
			case in.CrossMidnight && end >= start:
				details[field("end_time")] = "must be before start_time when cross_midnight is set"
				valid = false
			case !in.CrossMidnight && end <= start:
				details[field("end_time")] = "must be after start_time"
				valid = false
			}
			pref.StartTime, pref.EndTime = start, end
		}

		if valid {
			prefs = append(prefs, pref)
		}
	}

	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid submission", details)
	}
	return prefs, nil
}

// collectWarnings flags branch, role and shift type values the business does
// not know. They are stored as given.
func (s *SubmissionService) collectWarnings(ctx context.Context, businessID string, prefs []domain.ShiftPreference) ([]domain.PreferenceWarning, error) {
	if len(prefs) == 0 {
		return nil, nil
	}
	branches, err := s.directory.ListBranches(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	shifts, err := s.directory.GetActiveShiftTypes(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("load shift types: %w", err)
	}
	employees, err := s.directory.ListActiveEmployees(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	knownBranches := make(map[string]struct{}, len(branches)*2)
	for _, b := range branches {
		knownBranches[strings.ToLower(b.ID)] = struct{}{}
		knownBranches[strings.ToLower(b.Name)] = struct{}{}
	}
	knownShifts := make(map[string]struct{}, len(shifts))
	knownRoles := make(map[string]struct{})
	for _, st := range shifts {
		knownShifts[st.ID] = struct{}{}
		if st.RequiredRole != nil && *st.RequiredRole != "" {
			knownRoles[strings.ToLower(*st.RequiredRole)] = struct{}{}
		}
	}
	for _, e := range employees {
		if e.EmployeeType != "" {
			knownRoles[strings.ToLower(e.EmployeeType)] = struct{}{}
		}
	}

	var warnings []domain.PreferenceWarning
	for i, p := range prefs {
		if p.BranchPreference != "" {
			if _, ok := knownBranches[strings.ToLower(p.BranchPreference)]; !ok {
				warnings = append(warnings, domain.PreferenceWarning{
					Index: i, Field: "branch_preference", Value: p.BranchPreference, Message: "unknown branch",
				})
			}
		}
		if p.RolePreference != nil {
			if _, ok := knownRoles[strings.ToLower(*p.RolePreference)]; !ok {
				warnings = append(warnings, domain.PreferenceWarning{
					Index: i, Field: "role_preference", Value: *p.RolePreference, Message: "unknown role",
				})
			}
		}
		if p.ShiftTypeID != nil {
			if _, ok := knownShifts[*p.ShiftTypeID]; !ok {
				warnings = append(warnings, domain.PreferenceWarning{
					Index: i, Field: "shift_type_id", Value: *p.ShiftTypeID, Message: "unknown or inactive shift type",
				})
			}
		}
	}
	return warnings, nil
}

func (s *SubmissionService) publish(ctx context.Context, sub *domain.Submission, warnings int) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:       events.EventAvailabilitySubmitted,
		BusinessID: sub.BusinessID,
		Actor:      events.Actor{Type: events.ActorEmployee, Subject: sub.EmployeeID},
		Timestamp:  sub.SubmittedAt,
		Payload: events.AvailabilitySubmittedPayload{
			SubmissionID: sub.ID,
			TokenID:      *sub.TokenID,
			EmployeeID:   sub.EmployeeID,
			WeekStart:    sub.Week.Start.Format(domain.DateLayout),
			WeekEnd:      sub.Week.End.Format(domain.DateLayout),
			Preferences:  len(sub.Preferences),
			Warnings:     warnings,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
