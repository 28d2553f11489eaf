package domain

import (
	"fmt"
	"time"
)

// ClockTime is a wall-clock time of day in minutes after midnight.
type ClockTime int

// ParseClock parses an HH:MM value.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
