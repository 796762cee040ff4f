package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/lora-person/internal/constants"
	"github.com/kozaktomas/lora-person/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	personsHandler := handlers.NewPersonsHandler(s.config, s.client, s.views, s.logger)
	uploadHandler := handlers.NewUploadHandler(s.config, s.views, s.logger)
	photosHandler := handlers.NewPhotosHandler(s.config, s.client, s.views, s.logger)
	preprocessHandler := handlers.NewPreprocessHandler(s.config, s.views, s.logger)

	s.router.Handle("/metrics", promhttp.Handler())

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Upload batches run until the last file settles; no request deadline
		r.Post("/persons/{id}/uploads", uploadHandler.Upload)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(constants.RequestTimeoutMinutes * time.Minute))

			r.Get("/health", handlers.HealthCheck)

			// Persons
			r.Get("/persons", personsHandler.List)
			r.Post("/persons", personsHandler.Create)
			r.Get("/persons/{id}", personsHandler.Get)
			r.Post("/persons/{id}/refresh", personsHandler.Refresh)

			// Preprocessing
			r.Post("/persons/{id}/preprocess", preprocessHandler.Start)

			// Photos
			r.Delete("/persons/{id}/photos/{photoId}", photosHandler.Delete)
			r.Get("/persons/{id}/photos/{photoId}/url", photosHandler.URL)
		})
	})
}
