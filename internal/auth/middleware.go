package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated administrator.
type Principal struct {
	Subject    string
	BusinessID string
	Role       string
}

// CanAccess reports whether the principal may act on businessID.
func (p *Principal) CanAccess(businessID string) bool {
	if p == nil {
		return false
	}
	return p.Role == RoleSuperAdmin || strings.EqualFold(p.BusinessID, businessID)
}

// AuthMiddleware validates bearer tokens.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{Subject: claims.Subject, BusinessID: claims.BusinessID, Role: claims.Role})
	return c.Next()
}

// RequireBusinessAccess ensures the caller administers the business named by
// the route parameter param.
func RequireBusinessAccess(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.CanAccess(c.Params(param)) {
			return apperrors.NewForbidden("no access to this business")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated administrator.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
