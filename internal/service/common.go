package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/repository"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

const minSecretBytes = 16

// SecretGenerator returns an opaque URL-safe secret built from n random bytes.
type SecretGenerator func(n int) (string, error)

// GenerateSecret reads from the OS CSPRNG.
func GenerateSecret(n int) (string, error) {
	if n < minSecretBytes {
		n = minSecretBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ParseWeek parses a week range and reports problems as validation errors.
func ParseWeek(start, end string) (domain.Week, error) {
	week, err := domain.ParseWeek(start, end)
	if err != nil {
		return domain.Week{}, apperrors.NewValidationError("invalid week", map[string]any{
			"week": err.Error(),
		})
	}
	return week, nil
}

// canonicalID validates value as a UUID and returns its lower-case form,
// the representation Postgres hands back for uuid columns.
func canonicalID(field, value string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", apperrors.NewValidationError("invalid "+strings.ReplaceAll(field, "_", " "), map[string]any{
			field: "must be a UUID",
		})
	}
	return id.String(), nil
}

// resolveUsableToken loads the token behind secret and checks it is active
// and unexpired at now. Unknown secrets and unusable tokens are reported
// distinctly so employees can be told to ask for a new link.
func resolveUsableToken(ctx context.Context, tokens repository.TokenRepository, secret string, now time.Time) (*domain.Token, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, apperrors.NewTokenNotFound()
	}
	token, err := tokens.GetBySecret(ctx, secret)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewTokenNotFound()
		}
		return nil, fmt.Errorf("load token: %w", err)
	}
	switch token.StateAt(now) {
	case domain.TokenStateRevoked:
		return nil, apperrors.NewTokenExpired(map[string]any{"reason": "revoked"})
	case domain.TokenStateExpired:
		return nil, apperrors.NewTokenExpired(map[string]any{"reason": "expired"})
	}
	return token, nil
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
