package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/quotient-crm/quotient/internal/app"
	"github.com/quotient-crm/quotient/internal/assessments"
	"github.com/quotient-crm/quotient/internal/auth"
	"github.com/quotient-crm/quotient/internal/exports"
	"github.com/quotient-crm/quotient/internal/invoices"
	"github.com/quotient-crm/quotient/internal/leads"
	"github.com/quotient-crm/quotient/internal/notifications"
	"github.com/quotient-crm/quotient/internal/numbering"
	"github.com/quotient-crm/quotient/internal/observability"
	"github.com/quotient-crm/quotient/internal/platform/cache"
	"github.com/quotient-crm/quotient/internal/platform/db"
	"github.com/quotient-crm/quotient/internal/pricing"
	"github.com/quotient-crm/quotient/internal/proofs"
	"github.com/quotient-crm/quotient/internal/quotations"
	"github.com/quotient-crm/quotient/internal/shared"
	"github.com/quotient-crm/quotient/internal/storage"
	"github.com/quotient-crm/quotient/internal/users"
	"github.com/quotient-crm/quotient/internal/webhooks"
	"github.com/quotient-crm/quotient/jobs"
)

// leadTracker adapts the leads service to the quotations package.
// Leads that already advanced past QUOTED are left alone.
type leadTracker struct {
	leads *leads.Service
}

func (t leadTracker) RecordQuote(ctx context.Context, actor shared.Actor, leadID int64) error {
	_, err := t.leads.RecordQuote(ctx, actor, leadID)
	return err
}

func (t leadTracker) MarkQuoted(ctx context.Context, actor shared.Actor, leadID int64) error {
	_, err := t.leads.MarkAsQuoted(ctx, actor, leadID)
	if errors.Is(err, leads.ErrInvalidTransition) {
		return nil
	}
	return err
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	queue, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init queue client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("queue close", slog.Any("error", err))
		}
	}()

	files := storage.NewLocal(cfg.StorageRoot, cfg.StorageBaseURL)
	auditLogger := shared.NewAuditLogger(pool)

	authService := auth.NewService(auth.NewRepository(pool), redisClient, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.NewMiddleware(logger, authService)

	usersService := users.NewService(users.NewRepository(pool))
	usersHandler := users.NewHandler(logger, usersService)

	numbers := numbering.NewService(numbering.NewRepository(pool))

	webhookService := webhooks.NewService(logger, webhooks.NewRepository(pool), queue)
	webhookHandler := webhooks.NewHandler(logger, webhookService)

	dispatcher := notifications.NewDispatcher(logger,
		notifications.NewRepository(pool), queue, webhookService)
	notificationsHandler := notifications.NewHandler(logger, notifications.NewRepository(pool))

	leadsService := leads.NewService(leads.NewRepository(pool), dispatcher, auditLogger)
	leadsHandler := leads.NewHandler(logger, leadsService)

	quotationsService := quotations.NewService(quotations.NewRepository(pool), numbers,
		leadTracker{leads: leadsService}, dispatcher, auditLogger)
	quotationsHandler := quotations.NewHandler(logger, quotationsService)

	invoicesService := invoices.NewService(invoices.NewRepository(pool), numbers,
		dispatcher, auditLogger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService)
	quotationsService.SetConverter(invoicesService)

	pricingService := pricing.NewService(pricing.NewRepository(pool),
		pricing.NewCache(redisClient, 5*time.Minute))
	pricingHandler := pricing.NewHandler(logger, pricingService)

	assessmentsService := assessments.NewService(logger, assessments.NewRepository(pool),
		numbers, files, nil, quotationsService, auditLogger)
	assessmentsHandler := assessments.NewHandler(logger, assessmentsService)

	proofsService := proofs.NewService(proofs.NewRepository(pool), files, auditLogger)
	proofsHandler := proofs.NewHandler(logger, proofsService)

	exportsService := exports.NewService(logger, exports.NewRepository(pool), files, queue)
	exportsHandler := exports.NewHandler(logger, exportsService, auditLogger)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		AuthHandler:          authHandler,
		AuthMiddleware:       authMiddleware,
		UsersHandler:         usersHandler,
		LeadsHandler:         leadsHandler,
		QuotationsHandler:    quotationsHandler,
		InvoicesHandler:      invoicesHandler,
		PricingHandler:       pricingHandler,
		AssessmentsHandler:   assessmentsHandler,
		ProofsHandler:        proofsHandler,
		WebhooksHandler:      webhookHandler,
		NotificationsHandler: notificationsHandler,
		ExportsHandler:       exportsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
		FilesDir:             cfg.StorageRoot,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
