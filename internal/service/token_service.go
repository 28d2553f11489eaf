package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/repository"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

// Per-employee issuance failure reasons.
const (
	FailureInvalidEmployeeID = "invalid employee id"
	FailureEmployeeNotFound  = "employee not found in business"
	FailureEmployeeInactive  = "employee inactive or archived"
	FailureSecretExhausted   = "could not allocate a unique token"
	FailureStoreError        = "could not store token"
)

var errAttemptsExhausted = errors.New("token allocation attempts exhausted")

// TokenService issues, rotates and revokes availability tokens.
type TokenService struct {
	tokens     repository.TokenRepository
	directory  repository.DirectoryRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cfg        config.TokenConfig
	now        func() time.Time
	secrets    SecretGenerator
}

// TokenDependencies bundles collaborators for the token service.
type TokenDependencies struct {
	TokenRepo     repository.TokenRepository
	DirectoryRepo repository.DirectoryRepository
	Dispatcher    events.Dispatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Config        config.TokenConfig
	Now           func() time.Time
	Secrets       SecretGenerator
}

// IssueFailure explains why one employee did not receive a token.
type IssueFailure struct {
	EmployeeID string
	Reason     string
}

// IssueResult lists the tokens created and the employees that were skipped.
type IssueResult struct {
	Issued   []*domain.Token
	Failures []IssueFailure
}

// ResetResult reports a bulk reset of a week.
type ResetResult struct {
	Deleted int64
	Issued  []*domain.Token
}

// NewTokenService constructs the service.
func NewTokenService(deps TokenDependencies) *TokenService {
	s := &TokenService{
		tokens:     deps.TokenRepo,
		directory:  deps.DirectoryRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		cfg:        deps.Config,
		now:        deps.Now,
		secrets:    deps.Secrets,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = nowUTC
	}
	if s.secrets == nil {
		s.secrets = GenerateSecret
	}
	if s.cfg.MaxSecretAttempts <= 0 {
		s.cfg.MaxSecretAttempts = 1
	}
	return s
}

// Issue creates a weekly token for each target employee, replacing any
// active token the employee already holds for that week. Without
// employeeIDs every schedulable employee of the business is targeted.
func (s *TokenService) Issue(ctx context.Context, businessID string, week domain.Week, employeeIDs []string) (*IssueResult, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	targets, failures, err := s.resolveTargets(ctx, businessID, employeeIDs)
	if err != nil {
		return nil, err
	}

	expires := week.ExpiryAfter(s.cfg.ExpiryGrace())
	result, err := s.issueEach(ctx, targets, failures, func(employeeID *string) *domain.Token {
		return &domain.Token{
			BusinessID: businessID,
			EmployeeID: employeeID,
			Week:       week,
			ExpiresAt:  &expires,
		}
	})
	if err != nil {
		return nil, err
	}

	s.finishIssue(ctx, businessID, "weekly", week.String(), result)
	return result, nil
}

// IssuePermanent creates non-expiring tokens. Each employee keeps at most
// one active permanent token; a new one replaces the old.
func (s *TokenService) IssuePermanent(ctx context.Context, businessID string, employeeIDs []string) (*IssueResult, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	targets, failures, err := s.resolveTargets(ctx, businessID, employeeIDs)
	if err != nil {
		return nil, err
	}

	result, err := s.issueEach(ctx, targets, failures, func(employeeID *string) *domain.Token {
		return &domain.Token{BusinessID: businessID, EmployeeID: employeeID}
	})
	if err != nil {
		return nil, err
	}

	s.finishIssue(ctx, businessID, "permanent", "", result)
	return result, nil
}

// IssueBusinessWide creates a weekly token that is not bound to an
// employee. Every holder of the link submits under the same token, so
// such submissions carry no employee and never count towards the status.
func (s *TokenService) IssueBusinessWide(ctx context.Context, businessID string, week domain.Week) (*domain.Token, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	expires := week.ExpiryAfter(s.cfg.ExpiryGrace())
	token := &domain.Token{
		BusinessID: businessID,
		Week:       week,
		ExpiresAt:  &expires,
	}
	if err := s.rotate(ctx, token); err != nil {
		if errors.Is(err, errAttemptsExhausted) {
			return nil, apperrors.NewConflict("could not allocate a unique token, retry", nil)
		}
		return nil, fmt.Errorf("issue business-wide token: %w", err)
	}

	s.metrics.TokensIssued("business_wide", 1)
	s.logger.Info("business-wide token issued",
		zap.String("business_id", businessID),
		zap.String("week", week.String()),
		zap.String("token_id", token.ID))
	s.publishAs(ctx, events.Actor{Type: events.ActorOperator}, events.EventTokensIssued, businessID, events.TokensIssuedPayload{
		Week:   week.String(),
		Issued: 1,
	})
	return token, nil
}

// Revoke deactivates a token for good. Revoking an inactive token succeeds.
func (s *TokenService) Revoke(ctx context.Context, businessID, tokenID string) error {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return err
	}
	tokenID, err = canonicalID("token_id", tokenID)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, businessID, tokenID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("token", map[string]any{"token_id": tokenID})
		}
		return fmt.Errorf("revoke token: %w", err)
	}

	s.logger.Info("token revoked", zap.String("business_id", businessID), zap.String("token_id", tokenID))
	s.publish(ctx, events.EventTokenRevoked, businessID, events.TokenRevokedPayload{TokenID: tokenID})
	return nil
}

// ResetAndReissue deletes every token of the business for week and issues a
// fresh one per schedulable employee. Either the whole new set is stored or
// the old set stays untouched.
func (s *TokenService) ResetAndReissue(ctx context.Context, businessID string, week domain.Week) (*ResetResult, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	employees, err := s.directory.ListActiveEmployees(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	expires := week.ExpiryAfter(s.cfg.ExpiryGrace())
	for attempt := 1; ; attempt++ {
		tokens := make([]*domain.Token, 0, len(employees))
		for _, employee := range employees {
			if !employee.Schedulable() {
				continue
			}
			secret, err := s.secrets(s.cfg.SecretBytes)
			if err != nil {
				return nil, err
			}
			employeeID := employee.ID
			tokens = append(tokens, &domain.Token{
				Secret:     secret,
				BusinessID: businessID,
				EmployeeID: &employeeID,
				Week:       week,
				ExpiresAt:  &expires,
			})
		}

		deleted, err := s.tokens.ReplaceForWeek(ctx, businessID, week, tokens)
		if err == nil {
			result := &ResetResult{Deleted: deleted, Issued: tokens}
			s.metrics.TokensIssued("reset", len(tokens))
			s.logger.Info("tokens reset",
				zap.String("business_id", businessID),
				zap.String("week", week.String()),
				zap.Int64("deleted", deleted),
				zap.Int("issued", len(tokens)))
			s.publish(ctx, events.EventTokensReset, businessID, events.TokensResetPayload{
				WeekStart: week.Start.Format(domain.DateLayout),
				WeekEnd:   week.End.Format(domain.DateLayout),
				Deleted:   deleted,
				Issued:    len(tokens),
			})
			return result, nil
		}
		if !retryableAllocation(err) {
			return nil, fmt.Errorf("reset tokens: %w", err)
		}
		s.metrics.TokenIssueFailed(allocationReason(err))
		if attempt >= s.cfg.MaxSecretAttempts {
			return nil, apperrors.NewConflict("could not allocate unique tokens, retry the reset", map[string]any{
				"attempts": attempt,
			})
		}
	}
}

// CleanupDuplicates removes superseded tokens of the exact business/week tuple.
func (s *TokenService) CleanupDuplicates(ctx context.Context, businessID string, week domain.Week) (int64, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return 0, err
	}
	deleted, err := s.tokens.DeleteDuplicates(ctx, businessID, week)
	if err != nil {
		return 0, fmt.Errorf("delete duplicate tokens: %w", err)
	}
	s.logger.Info("duplicate tokens removed",
		zap.String("business_id", businessID),
		zap.String("week", week.String()),
		zap.Int64("deleted", deleted))
	s.publishAs(ctx, events.Actor{Type: events.ActorOperator}, events.EventTokensCleaned, businessID, events.TokensCleanedPayload{
		WeekStart: week.Start.Format(domain.DateLayout),
		WeekEnd:   week.End.Format(domain.DateLayout),
		Deleted:   deleted,
	})
	return deleted, nil
}

// issueEach rotates one token per target. Allocation and store failures
// are reported per employee; only a cancelled context aborts the batch.
func (s *TokenService) issueEach(ctx context.Context, targets []domain.Employee, failures []IssueFailure, build func(employeeID *string) *domain.Token) (*IssueResult, error) {
	result := &IssueResult{Failures: failures}
	for _, employee := range targets {
		employeeID := employee.ID
		token := build(&employeeID)
		err := s.rotate(ctx, token)
		switch {
		case err == nil:
			result.Issued = append(result.Issued, token)
		case errors.Is(err, errAttemptsExhausted):
			result.Failures = append(result.Failures, IssueFailure{EmployeeID: employeeID, Reason: FailureSecretExhausted})
		case ctx.Err() != nil:
			return nil, fmt.Errorf("issue token for employee %s: %w", employeeID, err)
		default:
			s.metrics.TokenIssueFailed("store_error")
			s.logger.Warn("token not stored", zap.String("employee_id", employeeID), zap.Error(err))
			result.Failures = append(result.Failures, IssueFailure{EmployeeID: employeeID, Reason: FailureStoreError})
		}
	}
	return result, nil
}

// rotate stores token with a fresh secret, retrying allocation conflicts.
func (s *TokenService) rotate(ctx context.Context, token *domain.Token) error {
	for attempt := 1; ; attempt++ {
		secret, err := s.secrets(s.cfg.SecretBytes)
		if err != nil {
			return err
		}
		token.Secret = secret

		err = s.tokens.Rotate(ctx, token)
		if err == nil {
			return nil
		}
		if !retryableAllocation(err) {
			return err
		}
		s.metrics.TokenIssueFailed(allocationReason(err))
		if attempt >= s.cfg.MaxSecretAttempts {
			return fmt.Errorf("%w: %w", errAttemptsExhausted, err)
		}
	}
}

func (s *TokenService) resolveTargets(ctx context.Context, businessID string, employeeIDs []string) ([]domain.Employee, []IssueFailure, error) {
	if len(employeeIDs) == 0 {
		employees, err := s.directory.ListActiveEmployees(ctx, businessID)
		if err != nil {
			return nil, nil, fmt.Errorf("list employees: %w", err)
		}
		targets := make([]domain.Employee, 0, len(employees))
		for _, e := range employees {
			if e.Schedulable() {
				targets = append(targets, e)
			}
		}
		return targets, nil, nil
	}

	var (
		targets  []domain.Employee
		failures []IssueFailure
		seen     = make(map[string]struct{}, len(employeeIDs))
	)
	for _, raw := range employeeIDs {
		id, err := canonicalID("employee_id", raw)
		if err != nil {
			failures = append(failures, IssueFailure{EmployeeID: raw, Reason: FailureInvalidEmployeeID})
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		employee, err := s.directory.GetEmployee(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				failures = append(failures, IssueFailure{EmployeeID: id, Reason: FailureEmployeeNotFound})
				continue
			}
			return nil, nil, fmt.Errorf("load employee %s: %w", id, err)
		}
		switch {
		case !strings.EqualFold(employee.BusinessID, businessID):
			failures = append(failures, IssueFailure{EmployeeID: id, Reason: FailureEmployeeNotFound})
		case !employee.Schedulable():
			failures = append(failures, IssueFailure{EmployeeID: id, Reason: FailureEmployeeInactive})
		default:
			targets = append(targets, *employee)
		}
	}
	return targets, failures, nil
}

func (s *TokenService) finishIssue(ctx context.Context, businessID, kind, week string, result *IssueResult) {
	s.metrics.TokensIssued(kind, len(result.Issued))
	fields := []zap.Field{
		zap.String("business_id", businessID),
		zap.String("kind", kind),
		zap.Int("issued", len(result.Issued)),
		zap.Int("failed", len(result.Failures)),
	}
	if week != "" {
		fields = append(fields, zap.String("week", week))
	}
	if len(result.Failures) > 0 {
		s.logger.Warn("tokens issued with failures", fields...)
	} else {
		s.logger.Info("tokens issued", fields...)
	}
	s.publish(ctx, events.EventTokensIssued, businessID, events.TokensIssuedPayload{
		Week:      week,
		Permanent: kind == "permanent",
		Issued:    len(result.Issued),
		Failed:    len(result.Failures),
	})
}

func (s *TokenService) publish(ctx context.Context, eventType events.EventType, businessID string, payload any) {
	s.publishAs(ctx, events.Actor{Type: events.ActorAdmin}, eventType, businessID, payload)
}

func (s *TokenService) publishAs(ctx context.Context, actor events.Actor, eventType events.EventType, businessID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:       eventType,
		BusinessID: businessID,
		Actor:      actor,
		Timestamp:  s.now(),
		Payload:    payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func retryableAllocation(err error) bool {
	return errors.Is(err, repository.ErrSecretCollision) || errors.Is(err, repository.ErrActiveTokenConflict)
}

func allocationReason(err error) string {
	if errors.Is(err, repository.ErrSecretCollision) {
		return "secret_collision"
	}
	return "active_token_conflict"
}
