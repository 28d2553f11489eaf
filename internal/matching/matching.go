// Package matching decides which shift definitions an employee may express
// availability for. It is pure and does no I/O.
package matching

import (
	"slices"
	"strings"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// Candidate is an employee together with their active branch assignments.
type Candidate struct {
	Employee domain.Employee
	Branches []string
}

// Compatible reports whether the shift's branch and role allow the candidate.
// A shift without a branch is open to any branch of the business, but the
// candidate must still hold at least one assignment.
func Compatible(shift domain.ShiftType, c Candidate) bool {
	if len(c.Branches) == 0 {
		return false
	}
	if shift.BranchID != nil && !slices.Contains(c.Branches, *shift.BranchID) {
		return false
	}
	if shift.RequiredRole == nil || strings.TrimSpace(*shift.RequiredRole) == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(*shift.RequiredRole), strings.TrimSpace(c.Employee.EmployeeType))
}

// ForEmployee buckets the compatible shifts of each day of week. Pool holds
// every schedulable employee of the business and is used to flag shifts that
// only target can fill.
func ForEmployee(week domain.Week, shifts []domain.ShiftType, target Candidate, pool []Candidate) []domain.DayShifts {
	onlyCandidate := make(map[string]bool, len(shifts))
	for _, shift := range shifts {
		if !Compatible(shift, target) {
			continue
		}
		onlyCandidate[shift.ID] = soleCandidate(shift, target, pool)
	}

	days := make([]domain.DayShifts, 0, week.Len())
	for _, date := range week.Days() {
		day := domain.DayShifts{Date: date}
		for _, shift := range shifts {
			only, ok := onlyCandidate[shift.ID]
			if !ok || !shift.RunsOn(date.Weekday()) {
				continue
			}
			eligible := domain.EligibleShift{ShiftType: shift, Date: date, Reason: domain.ReasonCompatible}
			if only {
				eligible.AutoSelected = true
				eligible.Reason = domain.ReasonOnlyCandidate
			}
			if shift.IsSpecial {
				if !only {
					eligible.Reason = domain.ReasonSpecial
				}
				day.Special = append(day.Special, eligible)
				continue
			}
			day.Compatible = append(day.Compatible, eligible)
		}
		days = append(days, day)
	}
	return days
}

// BusinessWide lists every active shift of each day. Nothing is auto-selected
// since the link is not tied to an employee.
func BusinessWide(week domain.Week, shifts []domain.ShiftType) []domain.DayShifts {
	days := make([]domain.DayShifts, 0, week.Len())
	for _, date := range week.Days() {
		day := domain.DayShifts{Date: date}
		for _, shift := range shifts {
			if !shift.RunsOn(date.Weekday()) {
				continue
			}
			eligible := domain.EligibleShift{ShiftType: shift, Date: date, Reason: domain.ReasonBusinessWide}
			if shift.IsSpecial {
				day.Special = append(day.Special, eligible)
				continue
			}
			day.Compatible = append(day.Compatible, eligible)
		}
		days = append(days, day)
	}
	return days
}

func soleCandidate(shift domain.ShiftType, target Candidate, pool []Candidate) bool {
	for _, other := range pool {
		if other.Employee.ID == target.Employee.ID || !other.Employee.Schedulable() {
			continue
		}
		if Compatible(shift, other) {
			return false
		}
	}
	return true
}
