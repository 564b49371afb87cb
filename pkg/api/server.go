package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func buildRouter(s *Server) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	authMiddleware := apiKeyMiddleware(s.config.APIKey)
	if s.metrics != nil {
		authMiddleware = s.metrics.InstrumentAuthMiddleware(authMiddleware)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/health", s.handleHealth)

		r.Put("/kv/{key}", s.handlePut)
		r.Get("/kv/{key}", s.handleGet)
		r.Delete("/kv/{key}", s.handleDelete)
		r.Get("/kv", s.handleListKeys)

		r.Get("/stats", s.handleStats)

		if s.systemService != nil {
			r.Post("/system/api-keys", s.handleCreateAPIKey)
			r.Get("/system/api-keys", s.handleListAPIKeys)
			r.Get("/system/api-keys/{id}", s.handleGetAPIKey)
			r.Delete("/system/api-keys/{id}", s.handleDeleteAPIKey)
		}
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", s.config.Port)),
	))

	return r
}

// Listen runs the HTTP server for s on its configured port. Blocks
// until the listener errors.
func (s *Server) Listen() error {
	r := buildRouter(s)

	if s.metrics != nil {
		go s.startMetricsUpdater()
	}

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("starting emberdb REST API server", "addr", addr)
	return http.ListenAndServe(addr, r)
}
