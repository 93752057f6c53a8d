package web

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/facegate/internal/web/handlers"
	"github.com/kozaktomas/facegate/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	accessHandler := handlers.NewAccessHandler(s.deps.Controller, s.deps.Clock, s.config.Access.RecognitionInterval)
	galleryHandler := handlers.NewGalleryHandler(s.deps.Controller.Gallery())
	configHandler := handlers.NewConfigHandler(s.config, s.deps.AuditStore)
	eventsHandler := handlers.NewEventsHandler(s.deps.Broadcaster)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Event stream is long-lived and must not be cut by the request timeout.
		r.Get("/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(30 * time.Second))

			r.Get("/status", accessHandler.Status)
			r.Get("/gallery", galleryHandler.List)
			r.Get("/config", configHandler.Get)

			r.With(middleware.RequireToken(s.config.Web.APIToken)).Post("/faces", accessHandler.SubmitFace)
		})
	})
}
