package invoices

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/aging", h.Aging)
		r.Get("/{id}", h.Show)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/items", h.AddItem)
		r.Patch("/{id}/items/{itemID}", h.UpdateItem)
		r.Delete("/{id}/items/{itemID}", h.DeleteItem)
		r.Post("/{id}/send", h.Send)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/payments", h.RecordPayment)
		r.Patch("/{id}/payments/{paymentID}", h.UpdatePaymentStatus)
	})
}
