package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/service"
)

// StatusReader derives the schedule status of a week.
type StatusReader interface {
	GetStatus(ctx context.Context, businessID string, week domain.Week) (*domain.ScheduleStatus, error)
}

// StatusHandler exposes the schedule status.
type StatusHandler struct {
	status      StatusReader
	defaultWeek func() domain.Week
}

// NewStatusHandler constructs handler. defaultWeek supplies the week when
// the query omits both bounds.
func NewStatusHandler(status StatusReader, defaultWeek func() domain.Week) *StatusHandler {
	return &StatusHandler{status: status, defaultWeek: defaultWeek}
}

// Get GET /businesses/:businessID/schedule-status.
func (h *StatusHandler) Get(c *fiber.Ctx) error {
	start, end := c.Query("week_start"), c.Query("week_end")

	var week domain.Week
	if start == "" && end == "" && h.defaultWeek != nil {
		week = h.defaultWeek()
	} else {
		parsed, err := service.ParseWeek(start, end)
		if err != nil {
			return err
		}
		week = parsed
	}

	status, err := h.status.GetStatus(c.UserContext(), c.Params("businessID"), week)
	if err != nil {
		return err
	}
	return data(c, fiber.StatusOK, status)
}
