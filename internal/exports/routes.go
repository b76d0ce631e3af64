package exports

import "github.com/go-chi/chi/v5"

// MountRoutes registers the export routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/exports", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.ListSchedules)
			r.Post("/", h.CreateSchedule)
			r.Delete("/{id}", h.DeleteSchedule)
		})
	})
	r.Get("/audit-logs", h.AuditLogs)
}
