package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeUnknown, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeUnknown, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.serviceKeyMiddleware)
			r.Use(s.operationTimeoutMiddleware)

			r.Route("/app", func(r chi.Router) {
				r.Post("/login", s.handleLogin)
				r.Post("/verify", s.handleVerify)

				r.Group(func(r chi.Router) {
					r.Use(s.userMiddleware)

					r.Post("/logout", s.handleLogout)
					r.Post("/request_key", s.handleRequestKey)
					r.Post("/create_controllable", s.handleCreateControllable)
					r.Post("/get_controllable", s.handleGetControllable)
					r.Get("/get_categories", s.handleGetCategories)
					r.Post("/get_categories", s.handleGetCategories)
					r.Get("/get_user", s.handleGetUser)
					r.Post("/get_user", s.handleGetUser)
					r.Get("/get_activity", s.handleGetActivity)
					r.Post("/get_activity", s.handleGetActivity)
				})
			})

			r.Route("/device", func(r chi.Router) {
				r.Post("/initialize", s.handleInitialize)
				r.Post("/connect_controllable", s.handleConnectControllable)
			})

			r.Route("/mqtt", func(r chi.Router) {
				r.Post("/set_online", s.handleSetOnline)
				r.Post("/set_offline", s.handleSetOffline)
			})
		})
	})

	return r
}

// handleHealth reports service liveness and, when configured, the state
// of the database and optional integrations.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.healthCheck != nil {
		if err := s.healthCheck(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":  "degraded",
				"version": s.version,
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
