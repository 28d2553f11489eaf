package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
)

func TestNilStatusCacheIsANoop(t *testing.T) {
	ctx := context.Background()
	week, err := domain.ParseWeek("2025-01-20", "2025-01-26")
	require.NoError(t, err)

	var cache *StatusCache
	status, ok, err := cache.Get(ctx, "biz", week)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, status)
	require.NoError(t, cache.Set(ctx, domain.ScheduleStatus{BusinessID: "biz"}, week))
	require.NoError(t, cache.Invalidate(ctx, "biz", week))

	require.Equal(t, "schedule-status:biz:"+week.String(), statusKey("biz", week))
}

func TestDisabledRedis(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{}, zap.NewNop())
	require.Nil(t, r)
	require.ErrorIs(t, r.Ping(context.Background()), ErrRedisDisabled)
	require.Nil(t, r.StatusCache(time.Minute))
	r.Close()
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.ErrorIs(t, err, ErrMissingDSN)
}

func TestRunMigrationsSkipsWithoutDSN(t *testing.T) {
	require.NoError(t, RunMigrations(context.Background(), "", zap.NewNop()))
}
