package api

import (
	"net/http"
	"route-map-client/internal/api/handlers"
	"route-map-client/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(session handlers.MapSession, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &handlers.SessionHandler{Session: session}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(logger.Named("http")))
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)

	r.Get("/health", handlers.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get("/input", h.GetInput)
	r.Put("/input", h.PutInput)
	r.Post("/optimize", h.Optimize)

	r.Get("/job", h.GetJob)
	r.Delete("/job", h.DeleteJob)
	r.Get("/route", h.GetRoute)
	r.Get("/events", h.Events)

	return r
}
