package domain

import "time"

// TokenState describes whether a token may be used at a given instant.
type TokenState string

const (
	TokenStateUsable  TokenState = "USABLE"
	TokenStateRevoked TokenState = "REVOKED"
	TokenStateExpired TokenState = "EXPIRED"
)

// Token grants one employee (or a whole business when EmployeeID is nil)
// the capability to view and submit availability without an account.
type Token struct {
	ID         string
	Secret     string
	BusinessID string
	EmployeeID *string
	// Week is the zero value for permanent tokens.
	Week       Week
	ExpiresAt  *time.Time
	Active     bool
	UsageCount int
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// IsPermanent reports whether the token never expires.
func (t *Token) IsPermanent() bool {
	return t.ExpiresAt == nil
}

// StateAt evaluates the token at now. Expiry is exclusive: a token is
// usable strictly before ExpiresAt.
func (t *Token) StateAt(now time.Time) TokenState {
	if !t.Active {
		return TokenStateRevoked
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return TokenStateExpired
	}
	return TokenStateUsable
}

// TargetWeek returns the week the token collects availability for.
func (t *Token) TargetWeek(now time.Time, firstDay time.Weekday) Week {
	if t.IsPermanent() {
		return UpcomingWeek(now, firstDay)
	}
	return t.Week
}
