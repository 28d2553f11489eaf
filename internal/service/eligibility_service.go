package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/matching"
	"github.com/spec-kit/shift-availability/internal/repository"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

// EligibilityService answers which shifts a token holder may pick. It only
// reads; token usage is tracked by submissions alone.
type EligibilityService struct {
	tokens      repository.TokenRepository
	submissions repository.SubmissionRepository
	directory   repository.DirectoryRepository
	logger      *zap.Logger
	cfg         config.TokenConfig
	now         func() time.Time
}

// EligibilityDependencies bundles collaborators for the eligibility service.
type EligibilityDependencies struct {
	TokenRepo      repository.TokenRepository
	SubmissionRepo repository.SubmissionRepository
	DirectoryRepo  repository.DirectoryRepository
	Logger         *zap.Logger
	Config         config.TokenConfig
	Now            func() time.Time
}

// NewEligibilityService constructs the service.
func NewEligibilityService(deps EligibilityDependencies) *EligibilityService {
	s := &EligibilityService{
		tokens:      deps.TokenRepo,
		submissions: deps.SubmissionRepo,
		directory:   deps.DirectoryRepo,
		logger:      deps.Logger,
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

// GetCompatibleShifts resolves the token and projects the active shift
// definitions of its business onto the target week.
func (s *EligibilityService) GetCompatibleShifts(ctx context.Context, secret string) (*domain.CompatibleShiftsData, error) {
	now := s.now()
	token, err := resolveUsableToken(ctx, s.tokens, secret, now)
	if err != nil {
		return nil, err
	}
	week := token.TargetWeek(now, s.cfg.WeekStartDay)

	shifts, err := s.directory.GetActiveShiftTypes(ctx, token.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("load shift types: %w", err)
	}

	data := &domain.CompatibleShiftsData{Token: token, Week: week}

	if token.EmployeeID == nil {
		data.Days = matching.BusinessWide(week, shifts)
		prior, err := s.submissions.GetForToken(ctx, token.ID, week)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("load prior submission: %w", err)
		}
		s.attachPrior(data, prior)
		return data, nil
	}

	employee, err := s.directory.GetEmployee(ctx, *token.EmployeeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", nil)
		}
		return nil, fmt.Errorf("load employee: %w", err)
	}
	data.Employee = employee

	branches, err := s.directory.GetBranchAssignments(ctx, employee.ID)
	if err != nil {
		return nil, fmt.Errorf("load branch assignments: %w", err)
	}
	pool, err := s.candidatePool(ctx, token.BusinessID)
	if err != nil {
		return nil, err
	}
	data.Days = matching.ForEmployee(week, shifts, matching.Candidate{Employee: *employee, Branches: branches}, pool)

	prior, err := s.submissions.GetLatestForEmployee(ctx, employee.ID, week)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("load prior submission: %w", err)
	}
	s.attachPrior(data, prior)

	if len(branches) == 0 {
		s.logger.Debug("employee has no branch assignments", zap.String("employee_id", employee.ID))
	}
	return data, nil
}

func (s *EligibilityService) candidatePool(ctx context.Context, businessID string) ([]matching.Candidate, error) {
	employees, err := s.directory.ListActiveEmployees(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	assignments, err := s.directory.ListBranchAssignments(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list branch assignments: %w", err)
	}
	pool := make([]matching.Candidate, 0, len(employees))
	for _, e := range employees {
		pool = append(pool, matching.Candidate{Employee: e, Branches: assignments[e.ID]})
	}
	return pool, nil
}

func (s *EligibilityService) attachPrior(data *domain.CompatibleShiftsData, prior *domain.Submission) {
	if prior == nil {
		return
	}
	data.PriorSubmission = prior
	data.OptionalMorningAvailability = prior.OptionalMorningAvailability
}
