package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseWeek(t *testing.T) {
	w, err := ParseWeek("2025-01-20", "2025-01-26")
	require.NoError(t, err)
	require.Equal(t, 7, w.Len())
	require.Len(t, w.Days(), 7)
	require.Equal(t, time.Monday, w.Start.Weekday())
	require.True(t, w.Contains(time.Date(2025, 1, 26, 23, 59, 0, 0, time.UTC)))
	require.False(t, w.Contains(time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)))
	require.Equal(t, "2025-01-20..2025-01-26", w.String())

	_, err = ParseWeek("2025-01-26", "2025-01-20")
	require.True(t, errors.Is(err, ErrInvalidWeek))

	_, err = ParseWeek("2025-01-20", "2025-01-27")
	require.ErrorIs(t, err, ErrInvalidWeek)

	_, err = ParseWeek("20-01-2025", "2025-01-26")
	require.ErrorIs(t, err, ErrInvalidWeek)
}

func TestWeekExpiryAfter(t *testing.T) {
	w, err := ParseWeek("2025-01-20", "2025-01-26")
	require.NoError(t, err)
	exp := w.ExpiryAfter(0)
	require.Equal(t, time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC), exp)
	require.True(t, exp.After(w.End))
	require.Equal(t, exp.Add(6*time.Hour), w.ExpiryAfter(6*time.Hour))
}

func TestUpcomingWeek(t *testing.T) {
	// Wednesday 2025-01-22
	now := time.Date(2025, 1, 22, 15, 0, 0, 0, time.UTC)
	w := UpcomingWeek(now, time.Sunday)
	require.Equal(t, "2025-01-26..2025-02-01", w.String())

	// On the start day itself the current week is targeted.
	w = UpcomingWeek(time.Date(2025, 1, 26, 9, 0, 0, 0, time.UTC), time.Sunday)
	require.Equal(t, "2025-01-26..2025-02-01", w.String())

	w = UpcomingWeek(now, time.Monday)
	require.Equal(t, "2025-01-27..2025-02-02", w.String())
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("08:30")
	require.NoError(t, err)
	require.Equal(t, ClockTime(510), c)
	require.Equal(t, "08:30", c.String())

	for _, bad := range []string{"8", "25:00", "ab:cd", ""} {
		_, err := ParseClock(bad)
		require.Error(t, err, bad)
	}
}
