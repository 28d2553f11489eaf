package domain

import "time"

// SchedulePhase summarizes where a business/week stands.
type SchedulePhase string

const (
	SchedulePhaseCollecting SchedulePhase = "collecting"
	SchedulePhasePublished  SchedulePhase = "published"
	SchedulePhaseApproved   SchedulePhase = "approved"
)

// ScheduledShiftSummary aggregates admin-authored shifts of a date range.
type ScheduledShiftSummary struct {
	Total          int
	Approved       int
	LastApprovedAt *time.Time
}

// ScheduleStatus is derived on read; nothing about it is stored.
type ScheduleStatus struct {
	BusinessID         string        `json:"business_id"`
	WeekStart          string        `json:"week_start"`
	WeekEnd            string        `json:"week_end"`
	Phase              SchedulePhase `json:"phase"`
	IsPublished        bool          `json:"is_published"`
	PublishDate        *time.Time    `json:"publish_date,omitempty"`
	SubmissionCount    int           `json:"submission_count"`
	ApprovedShiftCount int           `json:"approved_shift_count"`
	TotalShiftCount    int           `json:"total_shift_count"`
}

// NewScheduleStatus derives the status from raw counts.
func NewScheduleStatus(businessID string, week Week, summary ScheduledShiftSummary, submissions int) ScheduleStatus {
	status := ScheduleStatus{
		BusinessID:         businessID,
		WeekStart:          week.Start.Format(DateLayout),
		WeekEnd:            week.End.Format(DateLayout),
		Phase:              SchedulePhaseCollecting,
		SubmissionCount:    submissions,
		ApprovedShiftCount: summary.Approved,
		TotalShiftCount:    summary.Total,
	}
	if summary.Approved > 0 {
		status.IsPublished = true
		status.PublishDate = summary.LastApprovedAt
		status.Phase = SchedulePhasePublished
		if summary.Approved == summary.Total {
			status.Phase = SchedulePhaseApproved
		}
	}
	return status
}
