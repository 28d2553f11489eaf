package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/shift-availability/internal/domain"
)

type memoryStatusCache struct {
	entries map[string]domain.ScheduleStatus
	getErr  error
	gets    int
}

func (c *memoryStatusCache) key(businessID string, week domain.Week) string {
	return businessID + "|" + week.String()
}

func (c *memoryStatusCache) Get(_ context.Context, businessID string, week domain.Week) (*domain.ScheduleStatus, bool, error) {
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	status, ok := c.entries[c.key(businessID, week)]
	if !ok {
		return nil, false, nil
	}
	return &status, true, nil
}

func (c *memoryStatusCache) Set(_ context.Context, status domain.ScheduleStatus, week domain.Week) error {
	c.entries[c.key(status.BusinessID, week)] = status
	return nil
}

func (c *memoryStatusCache) Invalidate(_ context.Context, businessID string, week domain.Week) error {
	delete(c.entries, c.key(businessID, week))
	return nil
}

func TestGetStatus_PublishedOnFirstApproval(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.store.scheduled = domain.ScheduledShiftSummary{Total: 5}
	status, err := h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.False(t, status.IsPublished)
	require.Equal(t, domain.SchedulePhaseCollecting, status.Phase)

	approvedAt := time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)
	h.store.scheduled = domain.ScheduledShiftSummary{Total: 5, Approved: 1, LastApprovedAt: &approvedAt}
	status, err = h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.True(t, status.IsPublished)
	require.Equal(t, approvedAt, *status.PublishDate)
	require.Equal(t, domain.SchedulePhasePublished, status.Phase)

	h.store.scheduled = domain.ScheduledShiftSummary{Total: 5, Approved: 5, LastApprovedAt: &approvedAt}
	status, err = h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.Equal(t, domain.SchedulePhaseApproved, status.Phase)
}

func TestGetStatus_CountsSubmissionsNotTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := h.issueFor(t, emp1)
	h.issueFor(t, emp2)

	for i := 0; i < 2; i++ {
		_, err := h.submissions.Submit(ctx, token.Secret, SubmissionInput{})
		require.NoError(t, err)
	}
	status, err := h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.Equal(t, 1, status.SubmissionCount)
	require.False(t, status.IsPublished)
}

func TestGetStatus_CountsEmployeesOnceAcrossReissue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.issueFor(t, emp1)
	_, err := h.submissions.Submit(ctx, first.Secret, SubmissionInput{})
	require.NoError(t, err)
	second := h.issueFor(t, emp1)
	_, err = h.submissions.Submit(ctx, second.Secret, SubmissionInput{})
	require.NoError(t, err)
	require.Len(t, h.store.submissions, 2)

	status, err := h.status.GetStatus(ctx, strings.ToUpper(bizID), h.week)
	require.NoError(t, err)
	require.Equal(t, 1, status.SubmissionCount)
	require.Equal(t, bizID, status.BusinessID)
}

func TestGetStatus_UsesCacheAndInvalidatesOnSubmit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cache := &memoryStatusCache{entries: map[string]domain.ScheduleStatus{}}
	h.status.cache = cache
	h.status.RegisterHandlers(h.dispatcher)

	status, err := h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.Zero(t, status.SubmissionCount)
	require.Len(t, cache.entries, 1)

	token := h.issueFor(t, emp1)
	_, err = h.submissions.Submit(ctx, token.Secret, SubmissionInput{})
	require.NoError(t, err)
	require.Empty(t, cache.entries)

	status, err = h.status.GetStatus(ctx, bizID, h.week)
	require.NoError(t, err)
	require.Equal(t, 1, status.SubmissionCount)
}

func TestGetStatus_CacheFailureFallsBackToStore(t *testing.T) {
	h := newHarness(t)
	h.status.cache = &memoryStatusCache{entries: map[string]domain.ScheduleStatus{}, getErr: errors.New("redis down")}

	status, err := h.status.GetStatus(context.Background(), bizID, h.week)
	require.NoError(t, err)
	require.Equal(t, bizID, status.BusinessID)
}
