package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shift-availability/internal/api/dto"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/service"
)

// ReminderSender finds and nudges employees without a recent submission.
type ReminderSender interface {
	GetUnsubmitted(ctx context.Context, businessID string) ([]domain.Employee, error)
	SendReminders(ctx context.Context, businessID string, employeeIDs []string) (*service.ReminderResult, error)
}

// RemindersHandler exposes the reminder endpoints.
type RemindersHandler struct {
	reminders ReminderSender
}

// NewRemindersHandler constructs handler.
func NewRemindersHandler(reminders ReminderSender) *RemindersHandler {
	return &RemindersHandler{reminders: reminders}
}

// Unsubmitted GET /businesses/:businessID/submissions/unsubmitted.
func (h *RemindersHandler) Unsubmitted(c *fiber.Ctx) error {
	employees, err := h.reminders.GetUnsubmitted(c.UserContext(), c.Params("businessID"))
	if err != nil {
		return err
	}
	out := make([]dto.EmployeeSummary, 0, len(employees))
	for _, e := range employees {
		out = append(out, dto.EmployeeSummary{
			ID:           e.ID,
			Name:         e.FullName(),
			Phone:        e.Phone,
			EmployeeType: e.EmployeeType,
		})
	}
	return data(c, fiber.StatusOK, out)
}

// Send POST /businesses/:businessID/reminders. An empty body targets
// every unsubmitted employee.
func (h *RemindersHandler) Send(c *fiber.Ctx) error {
	var req dto.SendRemindersRequest
	if len(c.Body()) > 0 {
		if err := decodeStrict(c, &req); err != nil {
			return err
		}
	}
	result, err := h.reminders.SendReminders(c.UserContext(), c.Params("businessID"), req.EmployeeIDs)
	if err != nil {
		return err
	}
	failures := make([]dto.FailureResponse, 0, len(result.Failures))
	for _, f := range result.Failures {
		failures = append(failures, dto.FailureResponse{EmployeeID: f.EmployeeID, Reason: f.Reason})
	}
	return data(c, fiber.StatusOK, dto.SendRemindersResponse{
		Attempted: result.Attempted,
		SentCount: result.SentCount,
		Failures:  failures,
	})
}
