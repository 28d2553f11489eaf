package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/shift-availability/internal/api/http/handlers"
	"github.com/spec-kit/shift-availability/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Availability   *handlers.AvailabilityHandler
	Tokens         *handlers.TokensHandler
	Status         *handlers.StatusHandler
	Reminders      *handlers.RemindersHandler
	AuthMiddleware *auth.AuthMiddleware

	// Gatherer backs the metrics endpoint; nil disables it.
	Gatherer     prometheus.Gatherer
	MetricsPath  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Gatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	read := RequestTimeout(cfg.ReadTimeout)
	write := RequestTimeout(cfg.WriteTimeout)

	v1 := app.Group("/api/v1")

	public := v1.Group("/availability")
	public.Get("/:secret", read, cfg.Availability.Get)
	public.Post("/:secret", write, cfg.Availability.Submit)

	admin := v1.Group("/businesses/:businessID", cfg.AuthMiddleware.Handle, auth.RequireBusinessAccess("businessID"))
	admin.Post("/tokens", write, cfg.Tokens.Issue)
	admin.Post("/tokens/permanent", write, cfg.Tokens.IssuePermanent)
	admin.Post("/tokens/reset", write, cfg.Tokens.Reset)
	admin.Delete("/tokens/:tokenID", write, cfg.Tokens.Revoke)
	admin.Get("/schedule-status", read, cfg.Status.Get)
	admin.Get("/submissions/unsubmitted", read, cfg.Reminders.Unsubmitted)
	admin.Post("/reminders", write, cfg.Reminders.Send)
}
