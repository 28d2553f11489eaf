package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/messaging"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/repository"
)

// Per-recipient reminder failure reasons.
const (
	ReminderNotEmployee = "not an active employee of the business"
	ReminderNoPhone     = "no phone number on file"
)

// ReminderService finds employees who have not answered and nudges them.
type ReminderService struct {
	directory   repository.DirectoryRepository
	submissions repository.SubmissionRepository
	tokens      repository.TokenRepository
	sender      messaging.Sender
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	cfg         config.ReminderConfig
	now         func() time.Time
}

// ReminderDependencies bundles collaborators for the reminder service.
type ReminderDependencies struct {
	DirectoryRepo  repository.DirectoryRepository
	SubmissionRepo repository.SubmissionRepository
	TokenRepo      repository.TokenRepository
	Sender         messaging.Sender
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Config         config.ReminderConfig
	Now            func() time.Time
}

// ReminderFailure explains why one recipient was not reached.
type ReminderFailure struct {
	EmployeeID string
	Reason     string
}

// ReminderResult summarizes a reminder batch.
type ReminderResult struct {
	Attempted int
	SentCount int
	Failures  []ReminderFailure
}

// NewReminderService constructs the service.
func NewReminderService(deps ReminderDependencies) *ReminderService {
	s := &ReminderService{
		directory:   deps.DirectoryRepo,
		submissions: deps.SubmissionRepo,
		tokens:      deps.TokenRepo,
		sender:      deps.Sender,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
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

// GetUnsubmitted lists schedulable employees of the business without a
// submission inside the trailing reminder window.
func (s *ReminderService) GetUnsubmitted(ctx context.Context, businessID string) ([]domain.Employee, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	employees, err := s.directory.ListActiveEmployees(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return s.FilterUnsubmitted(ctx, businessID, employees)
}

// FilterUnsubmitted narrows employees to those of businessID that are
// schedulable and have not submitted inside the window. The window is not
// tied to a week so reminders still fire if the admin changes target weeks.
func (s *ReminderService) FilterUnsubmitted(ctx context.Context, businessID string, employees []domain.Employee) ([]domain.Employee, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	since := s.now().Add(-s.cfg.Window())
	recent, err := s.submissions.ListRecentSubmitters(ctx, businessID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent submitters: %w", err)
	}
	submitted := make(map[string]struct{}, len(recent))
	for _, id := range recent {
		submitted[id] = struct{}{}
	}

	unsubmitted := make([]domain.Employee, 0, len(employees))
	for _, e := range employees {
		if !strings.EqualFold(e.BusinessID, businessID) || !e.Schedulable() {
			continue
		}
		if _, ok := submitted[e.ID]; ok {
			continue
		}
		unsubmitted = append(unsubmitted, e)
	}
	return unsubmitted, nil
}

// SendReminders messages each listed employee, or every unsubmitted employee
// when employeeIDs is empty. Individual delivery failures are recorded and
// the batch carries on.
func (s *ReminderService) SendReminders(ctx context.Context, businessID string, employeeIDs []string) (*ReminderResult, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}
	employees, err := s.directory.ListActiveEmployees(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}

	result := &ReminderResult{}
	var recipients []domain.Employee
	if len(employeeIDs) == 0 {
		recipients, err = s.FilterUnsubmitted(ctx, businessID, employees)
		if err != nil {
			return nil, err
		}
	} else {
		byID := make(map[string]domain.Employee, len(employees))
		for _, e := range employees {
			byID[e.ID] = e
		}
		seen := make(map[string]struct{}, len(employeeIDs))
		for _, raw := range employeeIDs {
			id, err := canonicalID("employee_id", raw)
			if err != nil {
				result.Failures = append(result.Failures, ReminderFailure{EmployeeID: raw, Reason: ReminderNotEmployee})
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			e, ok := byID[id]
			if !ok || !e.Schedulable() {
				result.Failures = append(result.Failures, ReminderFailure{EmployeeID: id, Reason: ReminderNotEmployee})
				continue
			}
			recipients = append(recipients, e)
		}
	}

	ids := make([]string, 0, len(recipients))
	for _, e := range recipients {
		ids = append(ids, e.ID)
	}
	links, err := s.tokens.ListActiveByEmployees(ctx, businessID, ids, s.now())
	if err != nil {
		return nil, fmt.Errorf("load active tokens: %w", err)
	}

	for _, e := range recipients {
		if strings.TrimSpace(e.Phone) == "" {
			result.Failures = append(result.Failures, ReminderFailure{EmployeeID: e.ID, Reason: ReminderNoPhone})
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, ReminderFailure{EmployeeID: e.ID, Reason: err.Error()})
			continue
		}

		result.Attempted++
		res, err := s.sender.Send(ctx, e.Phone, s.render(e, links[e.ID]))
		switch {
		case err != nil:
			result.Failures = append(result.Failures, ReminderFailure{EmployeeID: e.ID, Reason: err.Error()})
			s.metrics.ReminderDelivered(false)
		case !res.OK:
			result.Failures = append(result.Failures, ReminderFailure{EmployeeID: e.ID, Reason: res.Error})
			s.metrics.ReminderDelivered(false)
		default:
			result.SentCount++
			s.metrics.ReminderDelivered(true)
		}
	}

	s.logger.Info("reminders sent",
		zap.String("business_id", businessID),
		zap.Int("attempted", result.Attempted),
		zap.Int("sent", result.SentCount),
		zap.Int("failed", len(result.Failures)))
	s.publish(ctx, businessID, result)
	return result, nil
}

func (s *ReminderService) render(e domain.Employee, token *domain.Token) string {
	link := s.cfg.PublicBaseURL
	if token != nil {
		link = s.cfg.PublicBaseURL + "/" + token.Secret
	}
	name := e.FirstName
	if name == "" {
		name = e.FullName()
	}
	return strings.NewReplacer("{name}", name, "{link}", link).Replace(s.cfg.MessageTemplate)
}

func (s *ReminderService) publish(ctx context.Context, businessID string, result *ReminderResult) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		Type:       events.EventRemindersSent,
		BusinessID: businessID,
		Actor:      events.Actor{Type: events.ActorAdmin},
		Timestamp:  s.now(),
		Payload: events.RemindersSentPayload{
			Attempted: result.Attempted,
			Sent:      result.SentCount,
			Failed:    len(result.Failures),
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}
