package domain

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// MaxWeekDays bounds the length of a submission window.
const MaxWeekDays = 7

// ErrInvalidWeek is returned for inverted or over-long week ranges.
var ErrInvalidWeek = errors.New("invalid week range")

// Week is an inclusive range of calendar dates, stored at UTC midnight.
type Week struct {
	Start time.Time
	End   time.Time
}

// NewWeek normalizes start and end to dates and validates the range.
func NewWeek(start, end time.Time) (Week, error) {
	w := Week{Start: DateOf(start), End: DateOf(end)}
	if w.End.Before(w.Start) {
		return Week{}, fmt.Errorf("%w: end %s before start %s", ErrInvalidWeek, w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	if w.Len() > MaxWeekDays {
		return Week{}, fmt.Errorf("%w: %d days exceeds %d", ErrInvalidWeek, w.Len(), MaxWeekDays)
	}
	return w, nil
}

// ParseWeek parses two YYYY-MM-DD dates into a Week.
func ParseWeek(start, end string) (Week, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Week{}, fmt.Errorf("%w: week_start: %v", ErrInvalidWeek, err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return Week{}, fmt.Errorf("%w: week_end: %v", ErrInvalidWeek, err)
	}
	return NewWeek(s, e)
}

// UpcomingWeek returns the seven-day window starting on the next firstDay
// on or after now.
func UpcomingWeek(now time.Time, firstDay time.Weekday) Week {
	today := DateOf(now)
	offset := (int(firstDay) - int(today.Weekday()) + 7) % 7
	start := today.AddDate(0, 0, offset)
	return Week{Start: start, End: start.AddDate(0, 0, MaxWeekDays-1)}
}

// Len returns the number of days in the week, inclusive.
func (w Week) Len() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Days lists every date of the week in order.
func (w Week) Days() []time.Time {
	days := make([]time.Time, 0, w.Len())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the date of t falls inside the week.
func (w Week) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// ExpiryAfter returns the first instant after the week plus grace.
func (w Week) ExpiryAfter(grace time.Duration) time.Time {
	return w.End.AddDate(0, 0, 1).Add(grace)
}

func (w Week) String() string {
	return w.Start.Format(DateLayout) + ".." + w.End.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DateOf truncates t to its calendar date at UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
