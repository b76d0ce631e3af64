package proofs

import (
	"github.com/go-chi/chi/v5"
)

func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/proofs", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Show)
		r.Patch("/{id}", h.Update)
		r.Post("/{id}/views", h.RecordView)
		r.Post("/{id}/assets", h.AddAsset)
		r.Delete("/{id}/assets/{assetID}", h.RemoveAsset)
	})
	r.Route("/testimonials", func(r chi.Router) {
		r.Get("/", h.ListTestimonials)
		r.Post("/", h.CreateTestimonial)
		r.Post("/{id}/feature", h.FeatureTestimonial)
	})
	r.Route("/case-studies", func(r chi.Router) {
		r.Get("/", h.ListCaseStudies)
		r.Post("/", h.CreateCaseStudy)
		r.Delete("/{id}", h.DeleteCaseStudy)
	})
	r.Route("/certifications", func(r chi.Router) {
		r.Get("/", h.ListCertifications)
		r.Post("/", h.CreateCertification)
		r.Delete("/{id}", h.DeleteCertification)
	})
}
