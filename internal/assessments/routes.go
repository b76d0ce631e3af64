package assessments

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/assessments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Post("/{id}/start", h.Start)
		r.Post("/{id}/complete", h.Complete)
		r.Post("/{id}/cancel", h.Cancel)
		r.Put("/{id}/items/{itemID}/response", h.RecordResponse)
		r.Post("/{id}/photos", h.AttachPhoto)
		r.Post("/{id}/generate-quotation", h.GenerateQuotation)
	})
}
