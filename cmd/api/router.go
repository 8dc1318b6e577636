package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/cityreports/docs"
	"github.com/fkhayef/cityreports/internal/config"
	"github.com/fkhayef/cityreports/internal/metrics"
	mw "github.com/fkhayef/cityreports/pkg/middleware"
)

// featureRoutes is implemented by every feature handler
type featureRoutes interface {
	Routes() chi.Router
}

type routes struct {
	users         featureRoutes
	reports       featureRoutes
	notifications featureRoutes
}

// newRouter assembles the HTTP surface. roles supplies the stored role for token
// subjects; a nil resolver falls back to the token's app_metadata.
func newRouter(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger, roles mw.RoleResolver, h routes) (http.Handler, error) {
	var authenticate func(http.Handler) http.Handler
	switch {
	case cfg.Auth.DevAuth:
		authenticate = mw.TestUserMiddleware
	case cfg.Auth.JWTSecret != "":
		authenticate = mw.AuthMiddleware(mw.NewTokenVerifier(cfg.Auth.JWTSecret), roles)
	default:
		return nil, errors.New("SUPABASE_JWT_SECRET is required unless DEV_AUTH is enabled")
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-Request-ID",
			"X-Test-User-ID", "X-Test-User-Email", "X-Test-User-Name", "X-Test-User-Role",
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticate)

		// Mount feature routers
		r.Mount("/users", h.users.Routes())
		r.Mount("/reports", h.reports.Routes())
		r.Mount("/notifications", h.notifications.Routes())
	})

	return r, nil
}
