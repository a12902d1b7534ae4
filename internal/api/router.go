package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/yttranscriber/internal/api/handlers"
	"github.com/nikhilbhutani/yttranscriber/internal/api/middleware"
)

type Router struct {
	mux            *chi.Mux
	local          handlers.Pipeline
	remote         handlers.Pipeline
	checks         map[string]handlers.CheckFunc
	allowedOrigins []string
}

// NewRouter binds the local pipeline to /api/v1 and the remote one to /api/v2.
func NewRouter(local, remote handlers.Pipeline, checks map[string]handlers.CheckFunc, allowedOrigins []string) *Router {
	return &Router{
		mux:            chi.NewRouter(),
		local:          local,
		remote:         remote,
		checks:         checks,
		allowedOrigins: allowedOrigins,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Recover)
	r.Use(middleware.CORS(rt.allowedOrigins))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	health := handlers.NewHealthHandler(rt.checks)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// API v1: local model
	r.Route("/api/v1", func(r chi.Router) {
		h := handlers.NewTranscribeHandler(rt.local)
		r.Post("/transcribe", h.Transcribe)
	})

	// API v2: remote transcription API
	r.Route("/api/v2", func(r chi.Router) {
		h := handlers.NewTranscribeHandler(rt.remote)
		r.Post("/transcribe", h.Transcribe)
	})

	return r
}
