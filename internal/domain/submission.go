package domain

import "time"

// SubmissionStatus enumerates review states of a submission.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted SubmissionStatus = "submitted"
	SubmissionStatusApproved  SubmissionStatus = "approved"
	SubmissionStatusRejected  SubmissionStatus = "rejected"
)

// ShiftPreference is one chosen slot of a submission.
type ShiftPreference struct {
	Date             time.Time
	StartTime        ClockTime
	EndTime          ClockTime
	CrossMidnight    bool
	BranchPreference string
	RolePreference   *string
	ShiftTypeID      *string
}

// Submission is the authoritative answer for a (token, week) pair.
// Resubmitting replaces Preferences, Notes and flags wholesale.
type Submission struct {
	ID                          string
	TokenID                     *string
	BusinessID                  string
	EmployeeID                  *string
	Week                        Week
	Preferences                 []ShiftPreference
	Notes                       string
	OptionalMorningAvailability []bool
	Status                      SubmissionStatus
	SubmittedAt                 time.Time
}

// PreferenceWarning flags a tolerated but unrecognized value.
type PreferenceWarning struct {
	Index   int
	Field   string
	Value   string
	Message string
}
