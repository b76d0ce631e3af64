package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/quotient-crm/quotient/internal/assessments"
	"github.com/quotient-crm/quotient/internal/auth"
	"github.com/quotient-crm/quotient/internal/exports"
	"github.com/quotient-crm/quotient/internal/invoices"
	"github.com/quotient-crm/quotient/internal/leads"
	"github.com/quotient-crm/quotient/internal/notifications"
	"github.com/quotient-crm/quotient/internal/observability"
	"github.com/quotient-crm/quotient/internal/pricing"
	"github.com/quotient-crm/quotient/internal/proofs"
	"github.com/quotient-crm/quotient/internal/quotations"
	"github.com/quotient-crm/quotient/internal/users"
	"github.com/quotient-crm/quotient/internal/webhooks"
	"github.com/quotient-crm/quotient/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware

	UsersHandler         *users.Handler
	LeadsHandler         *leads.Handler
	QuotationsHandler    *quotations.Handler
	InvoicesHandler      *invoices.Handler
	PricingHandler       *pricing.Handler
	AssessmentsHandler   *assessments.Handler
	ProofsHandler        *proofs.Handler
	WebhooksHandler      *webhooks.Handler
	NotificationsHandler *notifications.Handler
	ExportsHandler       *exports.Handler
	JobHandler           *jobs.Handler

	Metrics *observability.Metrics

	// FilesDir, when set, is served under /files for stored assets.
	FilesDir string
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/auth/login", params.AuthHandler.Login)

	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.RequireActor)

		r.Post("/auth/logout", params.AuthHandler.Logout)

		params.LeadsHandler.MountRoutes(r)
		params.QuotationsHandler.MountRoutes(r)
		params.InvoicesHandler.MountRoutes(r)
		params.PricingHandler.MountRoutes(r)
		params.AssessmentsHandler.MountRoutes(r)
		params.ProofsHandler.MountRoutes(r)
		params.NotificationsHandler.MountRoutes(r)
		params.ExportsHandler.MountRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))
			params.UsersHandler.MountRoutes(r)
			params.WebhooksHandler.MountRoutes(r)
		})
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.FilesDir != "" {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(params.FilesDir)))
		r.Handle("/files/*", cacheControl(fileServer))
	}

	return r
}

// cacheControl wraps the file server with browser caching headers.
func cacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
