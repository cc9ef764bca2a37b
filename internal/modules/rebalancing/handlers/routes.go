package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all rebalancing routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/rebalance", func(r chi.Router) {
		r.Post("/", h.HandleAnalyze)
		r.Get("/", h.HandleCheck)
		r.Post("/dismiss", h.HandleDismiss)
		r.Get("/history", h.HandleGetHistory)
		r.Post("/history", h.HandleRecordHistory)
		r.Post("/explain", h.HandleExplain)
	})
}
