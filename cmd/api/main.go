package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/shift-availability/internal/api/http"
	"github.com/spec-kit/shift-availability/internal/api/http/handlers"
	"github.com/spec-kit/shift-availability/internal/auth"
	"github.com/spec-kit/shift-availability/internal/config"
	"github.com/spec-kit/shift-availability/internal/domain"
	"github.com/spec-kit/shift-availability/internal/events"
	"github.com/spec-kit/shift-availability/internal/messaging"
	"github.com/spec-kit/shift-availability/internal/observability"
	"github.com/spec-kit/shift-availability/internal/persistence"
	"github.com/spec-kit/shift-availability/internal/repository"
	"github.com/spec-kit/shift-availability/internal/service"
	"github.com/spec-kit/shift-availability/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		registry *prometheus.Registry
		metrics  *observability.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	pool := pg.PoolHandle()
	tokenRepo := repository.NewTokenRepository(pool)
	submissionRepo := repository.NewSubmissionRepository(pool)
	directoryRepo := repository.NewDirectoryRepository(pool)
	scheduledShiftRepo := repository.NewScheduledShiftRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	tokenService := service.NewTokenService(service.TokenDependencies{
		TokenRepo:     tokenRepo,
		DirectoryRepo: directoryRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		Config:        cfg.Token,
	})
	eligibilityService := service.NewEligibilityService(service.EligibilityDependencies{
		TokenRepo:      tokenRepo,
		SubmissionRepo: submissionRepo,
		DirectoryRepo:  directoryRepo,
		Logger:         logger,
		Config:         cfg.Token,
	})
	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		TokenRepo:      tokenRepo,
		SubmissionRepo: submissionRepo,
		DirectoryRepo:  directoryRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		TokenConfig:    cfg.Token,
		Config:         cfg.Submission,
	})
	statusDeps := service.StatusDependencies{
		ScheduledShiftRepo: scheduledShiftRepo,
		SubmissionRepo:     submissionRepo,
		Metrics:            metrics,
		Logger:             logger,
	}
	if cache := redis.StatusCache(cfg.Status.CacheTTL()); cache != nil {
		statusDeps.Cache = cache
	}
	statusService := service.NewStatusService(statusDeps)
	reminderService := service.NewReminderService(service.ReminderDependencies{
		DirectoryRepo:  directoryRepo,
		SubmissionRepo: submissionRepo,
		TokenRepo:      tokenRepo,
		Sender:         messaging.NewSender(cfg.Messaging, logger),
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Config:         cfg.Reminder,
	})
	auditService := service.NewAuditService(dispatcher, logger)
	worker.StartEventHandlers(dispatcher, auditService, statusService)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		BodyLimit:             1 << 20,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics)

	routes := httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Availability: handlers.NewAvailabilityHandler(eligibilityService, submissionService),
		Tokens:       handlers.NewTokensHandler(tokenService, cfg.Reminder.PublicBaseURL),
		Status: handlers.NewStatusHandler(statusService, func() domain.Week {
			return domain.UpcomingWeek(time.Now().UTC(), cfg.Token.WeekStartDay)
		}),
		Reminders:      handlers.NewRemindersHandler(reminderService),
		AuthMiddleware: auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)),
		MetricsPath:    cfg.Metrics.Path,
		ReadTimeout:    cfg.App.ReadTimeout(),
		WriteTimeout:   cfg.App.WriteTimeout(),
	}
	if registry != nil {
		routes.Gatherer = registry
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
