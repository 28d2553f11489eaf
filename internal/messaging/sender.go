// Package messaging delivers reminder messages to employees.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/config"
)

// Result reports the outcome of one delivery. OK is false when the gateway
// refused the message; Error then carries its reason.
type Result struct {
	OK    bool
	Error string
}

// Sender delivers a text message to a phone number. A non-nil error means
// the gateway could not be reached at all.
type Sender interface {
	Send(ctx context.Context, phone, message string) (Result, error)
}

// NewSender returns a webhook sender when a gateway URL is configured and a
// logging stub otherwise.
func NewSender(cfg config.MessagingConfig, logger *zap.Logger) Sender {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return NewLogSender(logger)
	}
	return NewWebhookSender(cfg)
}

type webhookPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// WebhookSender posts messages as JSON to an HTTP gateway.
type WebhookSender struct {
	url     string
	apiKey  string
	timeout time.Duration
}

func NewWebhookSender(cfg config.MessagingConfig) *WebhookSender {
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{url: cfg.WebhookURL, apiKey: cfg.APIKey, timeout: timeout}
}

func (s *WebhookSender) Send(ctx context.Context, phone, message string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(s.url)
	if s.apiKey != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+s.apiKey)
	}
	agent.JSON(webhookPayload{To: phone, Message: message})
	agent.Timeout(timeout)

	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return Result{}, fmt.Errorf("prepare messaging request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return Result{}, fmt.Errorf("messaging gateway: %w", errors.Join(errs...))
	}
	if code < 200 || code > 299 {
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = fmt.Sprintf("gateway returned %d", code)
		}
		return Result{OK: false, Error: reason}, nil
	}
	return Result{OK: true}, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, phone, message string) (Result, error) {
	s.logger.Info("reminder (not delivered, no gateway configured)",
		zap.String("phone", maskPhone(phone)),
		zap.Int("length", len(message)))
	return Result{OK: true}, nil
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
