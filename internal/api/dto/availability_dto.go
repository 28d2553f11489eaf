package dto

import (
	"time"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// PreferenceRequest is one chosen slot.
type PreferenceRequest struct {
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	CrossMidnight    bool    `json:"cross_midnight"`
	BranchPreference string  `json:"branch_preference"`
	RolePreference   *string `json:"role_preference,omitempty"`
	ShiftTypeID      *string `json:"shift_type_id,omitempty"`
}

// SubmitAvailabilityRequest payload for POST /availability/:secret.
type SubmitAvailabilityRequest struct {
	Preferences                 []PreferenceRequest `json:"preferences"`
	Notes                       string              `json:"notes"`
	OptionalMorningAvailability []bool              `json:"optional_morning_availability"`
}

// TokenInfo describes the link without echoing its secret.
type TokenInfo struct {
	BusinessID string     `json:"business_id"`
	EmployeeID *string    `json:"employee_id,omitempty"`
	Permanent  bool       `json:"permanent"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	UsageCount int        `json:"usage_count"`
}

// EmployeeInfo is the minimal employee view shown on the form.
type EmployeeInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	EmployeeType string `json:"employee_type,omitempty"`
}

// EligibleShiftResponse is a shift projected onto a date.
type EligibleShiftResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	Weekday      string  `json:"weekday"`
	StartTime    string  `json:"start_time"`
	EndTime      string  `json:"end_time"`
	BranchID     *string `json:"branch_id,omitempty"`
	RequiredRole *string `json:"required_role,omitempty"`
	IsSpecial    bool    `json:"is_special"`
	AutoSelected bool    `json:"auto_selected"`
	Reason       string  `json:"reason"`
}

// DayResponse groups the shifts of one date.
type DayResponse struct {
	Date       string                  `json:"date"`
	Compatible []EligibleShiftResponse `json:"compatible"`
	Special    []EligibleShiftResponse `json:"special"`
}

// SubmissionResponse is a stored submission.
type SubmissionResponse struct {
	ID                          string              `json:"id"`
	WeekStart                   string              `json:"week_start"`
	WeekEnd                     string              `json:"week_end"`
	Preferences                 []PreferenceRequest `json:"preferences"`
	Notes                       string              `json:"notes"`
	OptionalMorningAvailability []bool              `json:"optional_morning_availability"`
	Status                      string              `json:"status"`
	SubmittedAt                 time.Time           `json:"submitted_at"`
}

// WarningResponse flags a tolerated value.
type WarningResponse struct {
	Index   int    `json:"index"`
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// CompatibleShiftsResponse is returned by GET /availability/:secret.
type CompatibleShiftsResponse struct {
	Token                       TokenInfo           `json:"token"`
	Employee                    *EmployeeInfo       `json:"employee,omitempty"`
	WeekStart                   string              `json:"week_start"`
	WeekEnd                     string              `json:"week_end"`
	Days                        []DayResponse       `json:"days"`
	PriorSubmission             *SubmissionResponse `json:"prior_submission,omitempty"`
	OptionalMorningAvailability []bool              `json:"optional_morning_availability"`
}

// SubmitAvailabilityResponse is returned by POST /availability/:secret.
type SubmitAvailabilityResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Warnings   []WarningResponse  `json:"warnings"`
}

// NewCompatibleShiftsResponse maps the matcher output.
func NewCompatibleShiftsResponse(data *domain.CompatibleShiftsData) CompatibleShiftsResponse {
	resp := CompatibleShiftsResponse{
		Token: TokenInfo{
			BusinessID: data.Token.BusinessID,
			EmployeeID: data.Token.EmployeeID,
			Permanent:  data.Token.IsPermanent(),
			ExpiresAt:  data.Token.ExpiresAt,
			UsageCount: data.Token.UsageCount,
		},
		WeekStart:                   data.Week.Start.Format(domain.DateLayout),
		WeekEnd:                     data.Week.End.Format(domain.DateLayout),
		Days:                        make([]DayResponse, 0, len(data.Days)),
		OptionalMorningAvailability: emptyIfNil(data.OptionalMorningAvailability),
	}
	if data.Employee != nil {
		resp.Employee = &EmployeeInfo{
			ID:           data.Employee.ID,
			Name:         data.Employee.FullName(),
			EmployeeType: data.Employee.EmployeeType,
		}
	}
	for _, day := range data.Days {
		resp.Days = append(resp.Days, DayResponse{
			Date:       day.Date.Format(domain.DateLayout),
			Compatible: shiftResponses(day.Compatible),
			Special:    shiftResponses(day.Special),
		})
	}
	if data.PriorSubmission != nil {
		prior := NewSubmissionResponse(data.PriorSubmission)
		resp.PriorSubmission = &prior
	}
	return resp
}

// NewSubmissionResponse maps a stored submission.
func NewSubmissionResponse(sub *domain.Submission) SubmissionResponse {
	prefs := make([]PreferenceRequest, 0, len(sub.Preferences))
	for _, p := range sub.Preferences {
		prefs = append(prefs, PreferenceRequest{
			Date:             p.Date.Format(domain.DateLayout),
			StartTime:        p.StartTime.String(),
			EndTime:          p.EndTime.String(),
			CrossMidnight:    p.CrossMidnight,
			BranchPreference: p.BranchPreference,
			RolePreference:   p.RolePreference,
			ShiftTypeID:      p.ShiftTypeID,
		})
	}
	return SubmissionResponse{
		ID:                          sub.ID,
		WeekStart:                   sub.Week.Start.Format(domain.DateLayout),
		WeekEnd:                     sub.Week.End.Format(domain.DateLayout),
		Preferences:                 prefs,
		Notes:                       sub.Notes,
		OptionalMorningAvailability: emptyIfNil(sub.OptionalMorningAvailability),
		Status:                      string(sub.Status),
		SubmittedAt:                 sub.SubmittedAt,
	}
}

// NewWarningResponses maps preference warnings.
func NewWarningResponses(warnings []domain.PreferenceWarning) []WarningResponse {
	out := make([]WarningResponse, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, WarningResponse{Index: w.Index, Field: w.Field, Value: w.Value, Message: w.Message})
	}
	return out
}

func shiftResponses(shifts []domain.EligibleShift) []EligibleShiftResponse {
	out := make([]EligibleShiftResponse, 0, len(shifts))
	for _, s := range shifts {
		out = append(out, EligibleShiftResponse{
			ID:           s.ID,
			Name:         s.Name,
			Date:         s.Date.Format(domain.DateLayout),
			Weekday:      s.Date.Weekday().String(),
			StartTime:    s.StartTime.String(),
			EndTime:      s.EndTime.String(),
			BranchID:     s.BranchID,
			RequiredRole: s.RequiredRole,
			IsSpecial:    s.IsSpecial,
			AutoSelected: s.AutoSelected,
			Reason:       s.Reason,
		})
	}
	return out
}

func emptyIfNil(v []bool) []bool {
	if v == nil {
		return []bool{}
	}
	return v
}
