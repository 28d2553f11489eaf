package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/repository"
)

// StatusCache stores derived schedule statuses for a short time.
type StatusCache interface {
	Get(ctx context.Context, businessID string, week domain.Week) (*domain.ScheduleStatus, bool, error)
	Set(ctx context.Context, status domain.ScheduleStatus, week domain.Week) error
	Invalidate(ctx context.Context, businessID string, week domain.Week) error
}

// StatusService derives whether a week is collecting, published or approved.
type StatusService struct {
	shifts      repository.ScheduledShiftRepository
	submissions repository.SubmissionRepository
	cache       StatusCache
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	ScheduledShiftRepo repository.ScheduledShiftRepository
	SubmissionRepo     repository.SubmissionRepository
	Cache              StatusCache
	Metrics            *observability.Metrics
	Logger             *zap.Logger
}

// NewStatusService constructs the service. Cache may be nil.
func NewStatusService(deps StatusDependencies) *StatusService {
	s := &StatusService{
		shifts:      deps.ScheduledShiftRepo,
		submissions: deps.SubmissionRepo,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// GetStatus returns the status of business for week. Cache failures only
// cost a direct read.
func (s *StatusService) GetStatus(ctx context.Context, businessID string, week domain.Week) (*domain.ScheduleStatus, error) {
	businessID, err := canonicalID("business_id", businessID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, businessID, week)
		if err != nil {
			s.logger.Warn("status cache read failed", zap.Error(err))
		}
		s.metrics.StatusCacheLookup(ok)
		if ok {
			return cached, nil
		}
	}

	summary, err := s.shifts.SummarizeWeek(ctx, businessID, week)
	if err != nil {
		return nil, fmt.Errorf("summarize scheduled shifts: %w", err)
	}
	count, err := s.submissions.CountForWeek(ctx, businessID, week)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	status := domain.NewScheduleStatus(businessID, week, summary, count)

	if s.cache != nil {
		if err := s.cache.Set(ctx, status, week); err != nil {
			s.logger.Warn("status cache write failed", zap.Error(err))
		}
	}
	return &status, nil
}

// RegisterHandlers drops cached statuses whose submission count changed.
func (s *StatusService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil || s.cache == nil {
		return
	}
	dispatcher.Subscribe(events.EventAvailabilitySubmitted, s.handleSubmitted)
}

func (s *StatusService) handleSubmitted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AvailabilitySubmittedPayload)
	if !ok {
		return nil
	}
	week, err := domain.ParseWeek(payload.WeekStart, payload.WeekEnd)
	if err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, event.BusinessID, week)
}
