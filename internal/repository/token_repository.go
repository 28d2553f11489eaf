package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shift-availability/internal/domain"
)

// TokenRepository persists availability tokens.
type TokenRepository interface {
	// Rotate deactivates the employee's current token for the same week (or
	// the current permanent token) and inserts token, in one transaction.
	Rotate(ctx context.Context, token *domain.Token) error
	GetBySecret(ctx context.Context, secret string) (*domain.Token, error)
	// Revoke is idempotent; it returns pgx.ErrNoRows only for unknown ids.
	Revoke(ctx context.Context, businessID, tokenID string) error
	// ReplaceForWeek deletes every token of the tuple and inserts tokens, all or nothing.
	ReplaceForWeek(ctx context.Context, businessID string, week domain.Week, tokens []*domain.Token) (int64, error)
	DeleteDuplicates(ctx context.Context, businessID string, week domain.Week) (int64, error)
	// ListActiveByEmployees returns the preferred usable token per employee.
	ListActiveByEmployees(ctx context.Context, businessID string, employeeIDs []string, now time.Time) (map[string]*domain.Token, error)
}

const tokenColumns = `id, secret, business_id, employee_id, week_start, week_end, expires_at, active, usage_count, last_used_at, created_at`

const insertTokenQuery = `
        INSERT INTO availability_tokens (secret, business_id, employee_id, week_start, week_end, expires_at, active)
        VALUES ($1,$2,$3,$4,$5,$6,true)
        RETURNING id, usage_count, created_at`

type tokenRepository struct {
	pool Pool
}

// NewTokenRepository constructs the repository.
func NewTokenRepository(pool Pool) TokenRepository {
	return &tokenRepository{pool: pool}
}

func (r *tokenRepository) Rotate(ctx context.Context, token *domain.Token) error {
	const deactivateWeekly = `
        UPDATE availability_tokens SET active = false
        WHERE employee_id = $1 AND week_start = $2 AND week_end = $3 AND expires_at IS NOT NULL AND active`
	const deactivatePermanent = `
        UPDATE availability_tokens SET active = false
        WHERE employee_id = $1 AND expires_at IS NULL AND active`

	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		if token.EmployeeID != nil {
			var err error
			if token.IsPermanent() {
				_, err = tx.Exec(ctx, deactivatePermanent, *token.EmployeeID)
			} else {
				_, err = tx.Exec(ctx, deactivateWeekly, *token.EmployeeID, token.Week.Start, token.Week.End)
			}
			if err != nil {
				return fmt.Errorf("deactivate previous token: %w", err)
			}
		}
		return insertToken(ctx, tx, token)
	})
}

func (r *tokenRepository) GetBySecret(ctx context.Context, secret string) (*domain.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM availability_tokens WHERE secret = $1`
	return scanToken(r.pool.QueryRow(ctx, query, secret))
}

func (r *tokenRepository) Revoke(ctx context.Context, businessID, tokenID string) error {
	const query = `
        UPDATE availability_tokens SET active = false
        WHERE id = $1 AND business_id = $2`
	cmd, err := r.pool.Exec(ctx, query, tokenID, businessID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *tokenRepository) ReplaceForWeek(ctx context.Context, businessID string, week domain.Week, tokens []*domain.Token) (int64, error) {
	const deleteQuery = `
        DELETE FROM availability_tokens
        WHERE business_id = $1 AND week_start = $2 AND week_end = $3`

	var deleted int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, deleteQuery, businessID, week.Start, week.End)
		if err != nil {
			return fmt.Errorf("delete week tokens: %w", err)
		}
		deleted = cmd.RowsAffected()
		for _, token := range tokens {
			if err := insertToken(ctx, tx, token); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r *tokenRepository) DeleteDuplicates(ctx context.Context, businessID string, week domain.Week) (int64, error) {
	const query = `
        DELETE FROM availability_tokens t
        WHERE t.business_id = $1 AND t.week_start = $2 AND t.week_end = $3
          AND t.id <> (
              SELECT k.id FROM availability_tokens k
              WHERE k.business_id = t.business_id AND k.employee_id = t.employee_id
                AND k.week_start = t.week_start AND k.week_end = t.week_end
              ORDER BY k.active DESC, k.created_at DESC
              LIMIT 1)`
	cmd, err := r.pool.Exec(ctx, query, businessID, week.Start, week.End)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *tokenRepository) ListActiveByEmployees(ctx context.Context, businessID string, employeeIDs []string, now time.Time) (map[string]*domain.Token, error) {
	result := make(map[string]*domain.Token, len(employeeIDs))
	if len(employeeIDs) == 0 {
		return result, nil
	}
	query := `
        SELECT DISTINCT ON (employee_id) ` + tokenColumns + `
        FROM availability_tokens
        WHERE business_id = $1 AND employee_id = ANY($2::uuid[]) AND active
          AND (expires_at IS NULL OR expires_at > $3)
        ORDER BY employee_id, (expires_at IS NULL), created_at DESC`
	rows, err := r.pool.Query(ctx, query, businessID, employeeIDs, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		if token.EmployeeID != nil {
			result[*token.EmployeeID] = token
		}
	}
	return result, rows.Err()
}

func insertToken(ctx context.Context, tx pgx.Tx, token *domain.Token) error {
	weekStart, weekEnd := weekArgs(token)
	err := tx.QueryRow(ctx, insertTokenQuery,
		token.Secret,
		token.BusinessID,
		token.EmployeeID,
		weekStart,
		weekEnd,
		token.ExpiresAt,
	).Scan(&token.ID, &token.UsageCount, &token.CreatedAt)
	if err != nil {
		return mapTokenWriteError(err)
	}
	token.Active = true
	return nil
}

func weekArgs(token *domain.Token) (any, any) {
	if token.IsPermanent() {
		return nil, nil
	}
	return token.Week.Start, token.Week.End
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var (
		token              domain.Token
		weekStart, weekEnd *time.Time
	)
	if err := row.Scan(
		&token.ID,
		&token.Secret,
		&token.BusinessID,
		&token.EmployeeID,
		&weekStart,
		&weekEnd,
		&token.ExpiresAt,
		&token.Active,
		&token.UsageCount,
		&token.LastUsedAt,
		&token.CreatedAt,
	); err != nil {
		return nil, err
	}
	if weekStart != nil && weekEnd != nil {
		token.Week = domain.Week{Start: domain.DateOf(*weekStart), End: domain.DateOf(*weekEnd)}
	}
	return &token, nil
}
