package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool used by repositories. pgxmock's pool
// satisfies it as well.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository sentinels.
var (
	// ErrSecretCollision means a freshly generated secret already exists.
	ErrSecretCollision = errors.New("token secret collision")
	// ErrActiveTokenConflict means a concurrent issuer activated a token for the same employee and week.
	ErrActiveTokenConflict = errors.New("active token already exists")
	// ErrTokenUnusable means the token was revoked or expired when the write ran.
	ErrTokenUnusable = errors.New("token unusable")
)

const (
	constraintSecret          = "availability_tokens_secret_key"
	constraintActivePerWeek   = "availability_tokens_one_active_per_week"
	constraintActivePermanent = "availability_tokens_one_active_permanent"
)

func withTx(ctx context.Context, pool Pool, fn func(tx pgx.Tx) error) (err error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()
	return fn(tx)
}

// mapTokenWriteError translates unique violations on the token table.
func mapTokenWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintSecret:
		return ErrSecretCollision
	case constraintActivePerWeek, constraintActivePermanent:
		return ErrActiveTokenConflict
	default:
		return err
	}
}
