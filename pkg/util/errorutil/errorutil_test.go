package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	require.Nil(t, ToDomainError(nil))

	de := ToDomainError(NewTokenExpired(nil))
	require.Equal(t, "TOKEN_EXPIRED", de.Code)
	require.Equal(t, http.StatusGone, de.HTTPStatus)

	de = ToDomainError(fmt.Errorf("get token: %w", pgx.ErrNoRows))
	require.Equal(t, "NOT_FOUND", de.Code)

	de = ToDomainError(fmt.Errorf("query: %w", context.DeadlineExceeded))
	require.Equal(t, "UPSTREAM_UNAVAILABLE", de.Code)
	require.ErrorIs(t, de, context.DeadlineExceeded)

	de = ToDomainError(errors.New("boom"))
	require.Equal(t, "INTERNAL_ERROR", de.Code)
	require.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
}

func TestSentinelsAreWrapped(t *testing.T) {
	require.ErrorIs(t, NewTokenNotFound(), ErrTokenNotFound)
	require.ErrorIs(t, NewTokenExpired(nil), ErrTokenExpired)
	require.ErrorIs(t, NewValidationError("bad", nil), ErrValidation)
	require.ErrorIs(t, NewConflict("dup", nil), ErrConflict)
	require.ErrorIs(t, NewUpstreamUnavailable(errors.New("down")), ErrUpstreamUnavailable)
	require.False(t, IsRetryable(errors.New("plain")))
	require.True(t, IsRetryable(NewUpstreamUnavailable(nil)))
}
