package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokensIssued          EventType = "tokens_issued"
	EventTokenRevoked          EventType = "token_revoked"
	EventTokensReset           EventType = "tokens_reset"
	EventTokensCleaned         EventType = "tokens_cleaned"
	EventAvailabilitySubmitted EventType = "availability_submitted"
	EventRemindersSent         EventType = "reminders_sent"
)

// Actor identifies who triggered an event.
type Actor struct {
	Type    string  `json:"type"`
	Subject *string `json:"subject,omitempty"`
}

// Actor types.
const (
	ActorAdmin    = "admin"
	ActorEmployee = "employee"
	ActorOperator = "operator"
)

// Event represents a domain event emitted by services.
type Event struct {
	Type       EventType `json:"type"`
	BusinessID string    `json:"business_id"`
	Actor      Actor     `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
}

// TokensIssuedPayload payload.
type TokensIssuedPayload struct {
	Week      string `json:"week,omitempty"`
	Permanent bool   `json:"permanent"`
	Issued    int    `json:"issued"`
	Failed    int    `json:"failed"`
}

// TokenRevokedPayload payload.
type TokenRevokedPayload struct {
	TokenID string `json:"token_id"`
}

// TokensResetPayload payload.
type TokensResetPayload struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Deleted   int64  `json:"deleted"`
	Issued    int    `json:"issued"`
}

// TokensCleanedPayload payload.
type TokensCleanedPayload struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Deleted   int64  `json:"deleted"`
}

// AvailabilitySubmittedPayload payload.
type AvailabilitySubmittedPayload struct {
	SubmissionID string  `json:"submission_id"`
	TokenID      string  `json:"token_id"`
	EmployeeID   *string `json:"employee_id,omitempty"`
	WeekStart    string  `json:"week_start"`
	WeekEnd      string  `json:"week_end"`
	Preferences  int     `json:"preferences"`
	Warnings     int     `json:"warnings"`
}

// RemindersSentPayload payload.
type RemindersSentPayload struct {
	Attempted int `json:"attempted"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}
