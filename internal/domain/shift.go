package domain

import (
	"slices"
	"time"
)

// ShiftType is an active shift definition of a business. Definitions are
// not versioned; matching always uses what is active at request time.
type ShiftType struct {
	ID           string
	BusinessID   string
	Name         string
	BranchID     *string
	RequiredRole *string
	StartTime    ClockTime
	EndTime      ClockTime
	Weekdays     []time.Weekday
	IsSpecial    bool
}

// RunsOn reports whether the shift is offered on the given weekday.
func (s ShiftType) RunsOn(day time.Weekday) bool {
	return slices.Contains(s.Weekdays, day)
}

// Eligibility reasons attached to projected shifts.
const (
	ReasonCompatible    = "branch and role match"
	ReasonOnlyCandidate = "only eligible employee for this slot"
	ReasonSpecial       = "special shift"
	ReasonBusinessWide  = "business-wide link"
)

// EligibleShift is a shift definition projected onto a date for one employee.
// It is derived per request and never persisted.
type EligibleShift struct {
	ShiftType
	Date         time.Time
	AutoSelected bool
	Reason       string
}

// DayShifts groups the eligible shifts of a single date.
type DayShifts struct {
	Date       time.Time
	Compatible []EligibleShift
	Special    []EligibleShift
}

// CompatibleShiftsData is everything the employee-facing form needs.
type CompatibleShiftsData struct {
	Token                       *Token
	Employee                    *Employee
	Week                        Week
	Days                        []DayShifts
	PriorSubmission             *Submission
	OptionalMorningAvailability []bool
}
