package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all yield routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/yields", func(r chi.Router) {
		r.Get("/", h.HandleGetYields)
		r.Post("/", h.HandleSetYields)
	})
}
