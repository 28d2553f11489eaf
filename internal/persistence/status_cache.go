package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/shift-availability/internal/domain"
)

const statusKeyPrefix = "schedule-status"

// StatusCache keeps recently computed schedule statuses in Redis.
type StatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatusCache returns a cache bound to the given client.
func NewStatusCache(client redis.Cmdable, ttl time.Duration) *StatusCache {
	return &StatusCache{client: client, ttl: ttl}
}

// Get returns the cached status; the bool is false on a miss.
func (c *StatusCache) Get(ctx context.Context, businessID string, week domain.Week) (*domain.ScheduleStatus, bool, error) {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, statusKey(businessID, week)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var status domain.ScheduleStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return nil, false, fmt.Errorf("decode cached status: %w", err)
	}
	return &status, true, nil
}

// Set stores status for the configured TTL.
func (c *StatusCache) Set(ctx context.Context, status domain.ScheduleStatus, week domain.Week) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statusKey(status.BusinessID, week), raw, c.ttl).Err()
}

// Invalidate drops the cached status so the next read recomputes it.
func (c *StatusCache) Invalidate(ctx context.Context, businessID string, week domain.Week) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, statusKey(businessID, week)).Err()
}

func statusKey(businessID string, week domain.Week) string {
	return fmt.Sprintf("%s:%s:%s", statusKeyPrefix, businessID, week.String())
}
