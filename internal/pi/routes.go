package pi

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the evaluation endpoints under /pi.
func RegisterRoutes(r chi.Router, svc *Service) {
	h := NewHandler(svc)
	r.Route("/pi", func(r chi.Router) {
		r.Post("/evaluate", h.Evaluate)
		r.Post("/ranges", h.Ranges)
		r.Get("/plan", h.Plan)
	})
}
