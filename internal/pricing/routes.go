package pricing

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/pricing", func(r chi.Router) {
		r.Get("/items", h.ListItems)
		r.Post("/items", h.CreateItem)
		r.Get("/items/{id}", h.GetItem)
		r.Patch("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.DeleteItem)
		r.Get("/items/{id}/tiers", h.ListTiers)
		r.Put("/items/{id}/tiers", h.ReplaceTiers)
		r.Post("/resolve", h.ResolvePrice)
		r.Get("/segments", h.ListSegments)
		r.Post("/segments", h.CreateSegment)
	})
}
