package dto

import "time"

// IssueTokensRequest payload for POST /tokens.
type IssueTokensRequest struct {
	WeekStart   string   `json:"week_start"`
	WeekEnd     string   `json:"week_end"`
	EmployeeIDs []string `json:"employee_ids"`
}

// IssuePermanentTokensRequest payload for POST /tokens/permanent.
type IssuePermanentTokensRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
}

// ResetTokensRequest payload for POST /tokens/reset.
type ResetTokensRequest struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
}

// SendRemindersRequest payload for POST /reminders. Empty employee_ids
// targets every employee without a recent submission.
type SendRemindersRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
}

// IssuedToken is a freshly created link. The secret is only ever returned here.
type IssuedToken struct {
	TokenID    string     `json:"token_id"`
	EmployeeID *string    `json:"employee_id,omitempty"`
	Secret     string     `json:"secret"`
	Link       string     `json:"link"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// FailureResponse names an employee the operation skipped.
type FailureResponse struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

// IssueTokensResponse reports a bulk issuance.
type IssueTokensResponse struct {
	IssuedCount int               `json:"issued_count"`
	Issued      []IssuedToken     `json:"issued"`
	Failures    []FailureResponse `json:"failures"`
}

// ResetTokensResponse reports a reset.
type ResetTokensResponse struct {
	Deleted     int64         `json:"deleted"`
	IssuedCount int           `json:"issued_count"`
	Issued      []IssuedToken `json:"issued"`
}

// EmployeeSummary is an unsubmitted employee.
type EmployeeSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	EmployeeType string `json:"employee_type,omitempty"`
}

// SendRemindersResponse reports a reminder batch.
type SendRemindersResponse struct {
	Attempted int               `json:"attempted"`
	SentCount int               `json:"sent_count"`
	Failures  []FailureResponse `json:"failures"`
}
