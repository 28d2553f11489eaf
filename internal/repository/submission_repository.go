package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// SubmissionRepository persists availability submissions.
type SubmissionRepository interface {
	// Record marks the token used and upserts the submission for
	// (token, week) in one transaction. It fails with ErrTokenUnusable when
	// the token is no longer active or has expired at now.
	Record(ctx context.Context, sub *domain.Submission, now time.Time) error
	GetLatestForEmployee(ctx context.Context, employeeID string, week domain.Week) (*domain.Submission, error)
	GetForToken(ctx context.Context, tokenID string, week domain.Week) (*domain.Submission, error)
	CountForWeek(ctx context.Context, businessID string, week domain.Week) (int, error)
	ListRecentSubmitters(ctx context.Context, businessID string, since time.Time) ([]string, error)
}

const submissionColumns = `id, token_id, business_id, employee_id, week_start, week_end, preferences, notes, optional_morning, status, submitted_at`

type submissionRepository struct {
	pool Pool
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(pool Pool) SubmissionRepository {
	return &submissionRepository{pool: pool}
}

// storedPreference is the jsonb shape of a ShiftPreference.
type storedPreference struct {
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	CrossMidnight    bool    `json:"cross_midnight,omitempty"`
	BranchPreference string  `json:"branch_preference"`
	RolePreference   *string `json:"role_preference,omitempty"`
	ShiftTypeID      *string `json:"shift_type_id,omitempty"`
}

func (r *submissionRepository) Record(ctx context.Context, sub *domain.Submission, now time.Time) error {
	const useToken = `
        UPDATE availability_tokens
        SET usage_count = usage_count + 1, last_used_at = $2
        WHERE id = $1 AND active AND (expires_at IS NULL OR expires_at > $2)
        RETURNING usage_count`
	const upsert = `
        INSERT INTO availability_submissions (token_id, business_id, employee_id, week_start, week_end, preferences, notes, optional_morning, status, submitted_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (token_id, week_start) DO UPDATE SET
            week_end = EXCLUDED.week_end,
            preferences = EXCLUDED.preferences,
            notes = EXCLUDED.notes,
            optional_morning = EXCLUDED.optional_morning,
            status = EXCLUDED.status,
            submitted_at = EXCLUDED.submitted_at
        RETURNING id`

	if sub.TokenID == nil {
		return errors.New("submission without token")
	}
	prefs, err := encodePreferences(sub.Preferences)
	if err != nil {
		return err
	}
	morning, err := json.Marshal(nonNilBools(sub.OptionalMorningAvailability))
	if err != nil {
		return fmt.Errorf("encode optional morning: %w", err)
	}

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var usage int
		if err := tx.QueryRow(ctx, useToken, *sub.TokenID, now).Scan(&usage); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTokenUnusable
			}
			return fmt.Errorf("mark token used: %w", err)
		}

		sub.Status = domain.SubmissionStatusSubmitted
		sub.SubmittedAt = now
		return tx.QueryRow(ctx, upsert,
			*sub.TokenID,
			sub.BusinessID,
			sub.EmployeeID,
			sub.Week.Start,
			sub.Week.End,
			prefs,
			sub.Notes,
			morning,
			string(sub.Status),
			sub.SubmittedAt,
		).Scan(&sub.ID)
	})
}

func (r *submissionRepository) GetLatestForEmployee(ctx context.Context, employeeID string, week domain.Week) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM availability_submissions
        WHERE employee_id = $1 AND week_start = $2 AND week_end = $3
        ORDER BY submitted_at DESC LIMIT 1`
	return scanSubmission(r.pool.QueryRow(ctx, query, employeeID, week.Start, week.End))
}

func (r *submissionRepository) GetForToken(ctx context.Context, tokenID string, week domain.Week) (*domain.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM availability_submissions
        WHERE token_id = $1 AND week_start = $2`
	return scanSubmission(r.pool.QueryRow(ctx, query, tokenID, week.Start))
}

func (r *submissionRepository) CountForWeek(ctx context.Context, businessID string, week domain.Week) (int, error) {
	const query = `
        SELECT COUNT(DISTINCT s.employee_id) FROM availability_submissions s
        JOIN employees e ON e.id = s.employee_id
        WHERE e.business_id = $1 AND s.week_start = $2 AND s.week_end = $3`
	var count int
	if err := r.pool.QueryRow(ctx, query, businessID, week.Start, week.End).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *submissionRepository) ListRecentSubmitters(ctx context.Context, businessID string, since time.Time) ([]string, error) {
	const query = `
        SELECT DISTINCT employee_id FROM availability_submissions
        WHERE business_id = $1 AND employee_id IS NOT NULL AND submitted_at >= $2`
	rows, err := r.pool.Query(ctx, query, businessID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		sub                domain.Submission
		weekStart, weekEnd time.Time
		prefs, morning     []byte
		status             string
	)
	if err := row.Scan(
		&sub.ID,
		&sub.TokenID,
		&sub.BusinessID,
		&sub.EmployeeID,
		&weekStart,
		&weekEnd,
		&prefs,
		&sub.Notes,
		&morning,
		&status,
		&sub.SubmittedAt,
	); err != nil {
		return nil, err
	}
	sub.Week = domain.Week{Start: domain.DateOf(weekStart), End: domain.DateOf(weekEnd)}
	sub.Status = domain.SubmissionStatus(status)

	decoded, err := decodePreferences(prefs)
	if err != nil {
		return nil, err
	}
	sub.Preferences = decoded
	if len(morning) > 0 {
		if err := json.Unmarshal(morning, &sub.OptionalMorningAvailability); err != nil {
			return nil, fmt.Errorf("decode optional morning: %w", err)
		}
	}
	return &sub, nil
}

func encodePreferences(prefs []domain.ShiftPreference) ([]byte, error) {
	stored := make([]storedPreference, 0, len(prefs))
	for _, p := range prefs {
		stored = append(stored, storedPreference{
			Date:             p.Date.Format(domain.DateLayout),
			StartTime:        p.StartTime.String(),
			EndTime:          p.EndTime.String(),
			CrossMidnight:    p.CrossMidnight,
			BranchPreference: p.BranchPreference,
			RolePreference:   p.RolePreference,
			ShiftTypeID:      p.ShiftTypeID,
		})
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	return raw, nil
}

func decodePreferences(raw []byte) ([]domain.ShiftPreference, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var stored []storedPreference
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	prefs := make([]domain.ShiftPreference, 0, len(stored))
	for _, s := range stored {
		date, err := domain.ParseDate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("decode preference date: %w", err)
		}
		start, err := domain.ParseClock(s.StartTime)
		if err != nil {
			return nil, fmt.Errorf("decode preference start: %w", err)
		}
		end, err := domain.ParseClock(s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("decode preference end: %w", err)
		}
		prefs = append(prefs, domain.ShiftPreference{
			Date:             date,
			StartTime:        start,
			EndTime:          end,
			CrossMidnight:    s.CrossMidnight,
			BranchPreference: s.BranchPreference,
			RolePreference:   s.RolePreference,
			ShiftTypeID:      s.ShiftTypeID,
		})
	}
	return prefs, nil
}

func nonNilBools(v []bool) []bool {
	if v == nil {
		return []bool{}
	}
	return v
}
