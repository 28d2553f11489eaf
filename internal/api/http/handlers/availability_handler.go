package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-availability/internal/api/dto"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/service"
	apperrors "github.com/spec-kit/shift-availability/pkg/util/errorutil"
)

// EligibilityReader resolves the form contents for a link.
type EligibilityReader interface {
	GetCompatibleShifts(ctx context.Context, secret string) (*domain.CompatibleShiftsData, error)
}

// SubmissionRecorder stores an employee's weekly answer.
type SubmissionRecorder interface {
	Submit(ctx context.Context, secret string, input service.SubmissionInput) (*service.SubmitResult, error)
}

// AvailabilityHandler serves the public, token-authenticated endpoints.
type AvailabilityHandler struct {
	eligibility EligibilityReader
	submissions SubmissionRecorder
}

// NewAvailabilityHandler constructs handler.
func NewAvailabilityHandler(eligibility EligibilityReader, submissions SubmissionRecorder) *AvailabilityHandler {
	return &AvailabilityHandler{eligibility: eligibility, submissions: submissions}
}

// Get GET /availability/:secret.
func (h *AvailabilityHandler) Get(c *fiber.Ctx) error {
	secret := c.Params("secret")
	if secret == "" {
		return apperrors.NewTokenNotFound()
	}
	result, err := h.eligibility.GetCompatibleShifts(c.UserContext(), secret)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.NewCompatibleShiftsResponse(result))
}

// Submit POST /availability/:secret.
func (h *AvailabilityHandler) Submit(c *fiber.Ctx) error {
	secret := c.Params("secret")
	if secret == "" {
		return apperrors.NewTokenNotFound()
	}
	var req dto.SubmitAvailabilityRequest
	if err := decodeStrict(c, &req); err != nil {
		return err
	}
	if req.Preferences == nil {
		return apperrors.NewValidationError("preferences is required", map[string]any{"field": "preferences"})
	}

	input := service.SubmissionInput{
		Preferences:                 make([]service.PreferenceInput, 0, len(req.Preferences)),
		Notes:                       req.Notes,
		OptionalMorningAvailability: req.OptionalMorningAvailability,
	}
	for _, p := range req.Preferences {
		input.Preferences = append(input.Preferences, service.PreferenceInput{
			Date:             p.Date,
			StartTime:        p.StartTime,
			EndTime:          p.EndTime,
			CrossMidnight:    p.CrossMidnight,
			BranchPreference: p.BranchPreference,
			RolePreference:   p.RolePreference,
			ShiftTypeID:      p.ShiftTypeID,
		})
	}

	result, err := h.submissions.Submit(c.UserContext(), secret, input)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, dto.SubmitAvailabilityResponse{
		Submission: dto.NewSubmissionResponse(result.Submission),
		Warnings:   dto.NewWarningResponses(result.Warnings),
	})
}
