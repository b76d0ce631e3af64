package leads

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/contact", h.RecordContact)
		r.Post("/{id}/quote", h.RecordQuote)
		r.Post("/{id}/mark-contacted", h.MarkContacted)
		r.Post("/{id}/mark-quoted", h.MarkQuoted)
		r.Post("/{id}/mark-won", h.MarkWon)
		r.Post("/{id}/mark-lost", h.MarkLost)
	})
}
