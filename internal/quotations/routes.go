package quotations

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/items", h.AddItem)
		r.Patch("/{id}/items/{itemID}", h.UpdateItem)
		r.Delete("/{id}/items/{itemID}", h.DeleteItem)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/viewed", h.MarkViewed)
		r.Post("/{id}/accept", h.Accept)
		r.Post("/{id}/reject", h.Reject)
		r.Post("/{id}/convert", h.Convert)
	})
}
