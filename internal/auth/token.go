package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// RoleSuperAdmin may act on any business.
const RoleSuperAdmin = "super_admin"

// TokenManager validates admin bearer tokens issued by the account system.
type TokenManager struct {
	secret []byte
	issuer string
}

// NewTokenManager builds a new manager. An empty issuer skips the iss check.
func NewTokenManager(secret, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer}
}

// Claims describes JWT payload.
type Claims struct {
	BusinessID string `json:"business_id"`
	Role       string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs claims for subject. Used by tooling and tests; the
// production tokens come from the account system.
func (tm *TokenManager) GenerateToken(subject, businessID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		BusinessID: businessID,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.BusinessID == "" && claims.Role != RoleSuperAdmin {
		return nil, errors.New("token carries no business scope")
	}
	return claims, nil
}
