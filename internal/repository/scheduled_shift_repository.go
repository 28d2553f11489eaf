package repository

import (
	"context"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// ScheduledShiftRepository reads admin-authored shifts used to derive the schedule phase.
type ScheduledShiftRepository interface {
	SummarizeWeek(ctx context.Context, businessID string, week domain.Week) (domain.ScheduledShiftSummary, error)
}

type scheduledShiftRepository struct {
	pool Pool
}

// NewScheduledShiftRepository constructs the repository.
func NewScheduledShiftRepository(pool Pool) ScheduledShiftRepository {
	return &scheduledShiftRepository{pool: pool}
}

func (r *scheduledShiftRepository) SummarizeWeek(ctx context.Context, businessID string, week domain.Week) (domain.ScheduledShiftSummary, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'approved'),
               MAX(updated_at) FILTER (WHERE status = 'approved')
        FROM scheduled_shifts
        WHERE business_id = $1 AND shift_date BETWEEN $2 AND $3`
	var summary domain.ScheduledShiftSummary
	err := r.pool.QueryRow(ctx, query, businessID, week.Start, week.End).
		Scan(&summary.Total, &summary.Approved, &summary.LastApprovedAt)
	return summary, err
}
