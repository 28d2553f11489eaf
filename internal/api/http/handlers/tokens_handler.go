package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-availability/internal/api/dto"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/service"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

// TokenIssuer manages the lifecycle of availability links.
type TokenIssuer interface {
	Issue(ctx context.Context, businessID string, week domain.Week, employeeIDs []string) (*service.IssueResult, error)
	IssuePermanent(ctx context.Context, businessID string, employeeIDs []string) (*service.IssueResult, error)
	Revoke(ctx context.Context, businessID, tokenID string) error
	ResetAndReissue(ctx context.Context, businessID string, week domain.Week) (*service.ResetResult, error)
}

// TokensHandler exposes admin token operations.
type TokensHandler struct {
	tokens  TokenIssuer
	baseURL string
}

// NewTokensHandler constructs handler. baseURL prefixes the secret in links.
func NewTokensHandler(tokens TokenIssuer, baseURL string) *TokensHandler {
	return &TokensHandler{tokens: tokens, baseURL: strings.TrimRight(baseURL, "/")}
}

// Issue POST /businesses/:businessID/tokens.
func (h *TokensHandler) Issue(c *fiber.Ctx) error {
	var req dto.IssueTokensRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	week, err := service.ParseWeek(req.WeekStart, req.WeekEnd)
	if err != nil {
		return err
	}
	result, err := h.tokens.Issue(c.UserContext(), c.Params("businessID"), week, req.EmployeeIDs)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, h.issueResponse(result))
}

// IssuePermanent POST /businesses/:businessID/tokens/permanent.
func (h *TokensHandler) IssuePermanent(c *fiber.Ctx) error {
	var req dto.IssuePermanentTokensRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	result, err := h.tokens.IssuePermanent(c.UserContext(), c.Params("businessID"), req.EmployeeIDs)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusCreated, h.issueResponse(result))
}

// Reset POST /businesses/:businessID/tokens/reset.
func (h *TokensHandler) Reset(c *fiber.Ctx) error {
	var req dto.ResetTokensRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	week, err := service.ParseWeek(req.WeekStart, req.WeekEnd)
	if err != nil {
		return err
	}
	result, err := h.tokens.ResetAndReissue(c.UserContext(), c.Params("businessID"), week)
	if err != nil {
		return err
	}
	issued := h.issuedTokens(result.Issued)
	return data(c, fiber.StatusOK, dto.ResetTokensResponse{
		Deleted:     result.Deleted,
		IssuedCount: len(issued),
		Issued:      issued,
	})
}

// Revoke DELETE /businesses/:businessID/tokens/:tokenID.
func (h *TokensHandler) Revoke(c *fiber.Ctx) error {
	tokenID := c.Params("tokenID")
	if tokenID == "" {
		return apperrors.NewValidationError("token id required", nil)
	}
	if err := h.tokens.Revoke(c.UserContext(), c.Params("businessID"), tokenID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TokensHandler) issueResponse(result *service.IssueResult) dto.IssueTokensResponse {
	issued := h.issuedTokens(result.Issued)
	failures := make([]dto.FailureResponse, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, dto.FailureResponse{EmployeeID: f.EmployeeID, Reason: f.Reason})
	}
	return dto.IssueTokensResponse{IssuedCount: len(issued), Issued: issued, Failures: failures}
}

func (h *TokensHandler) issuedTokens(tokens []*domain.Token) []dto.IssuedToken {
	out := make([]dto.IssuedToken, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, dto.IssuedToken{
			TokenID:    t.ID,
			EmployeeID: t.EmployeeID,
			Secret:     t.Secret,
			Link:       h.baseURL + "/" + t.Secret,
			ExpiresAt:  t.ExpiresAt,
		})
	}
	return out
}
