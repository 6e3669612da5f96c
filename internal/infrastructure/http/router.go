package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/handlers"
	"github.com/amirhosseinghanipour/provisioner/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	HealthHandler   *handlers.HealthHandler
	ProjectsHandler *handlers.ProjectsHandler
	AdminHandler    *handlers.AdminHandler
	RequireAuth     func(http.Handler) http.Handler // bearer token -> credentials in context
	Log             zerolog.Logger
	Secure          func(http.Handler) http.Handler
	IPRateLimit     func(http.Handler) http.Handler
	CallerRateLimit func(http.Handler) http.Handler // after RequireAuth, keyed by subject
	Metrics         bool                            // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	r.Use(chimid.AllowContentType("application/json"))
	r.Use(chimid.SetHeader("Content-Type", "application/json"))
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.RequireAuth == nil {
		return r
	}

	r.Group(func(r chi.Router) {
		r.Use(cfg.RequireAuth)
		if cfg.CallerRateLimit != nil {
			r.Use(cfg.CallerRateLimit)
		}

		if h := cfg.ProjectsHandler; h != nil {
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Create)
				r.Delete("/", h.DeleteAll)
				r.Get("/by-name/{name}", h.GetByName)
				r.Get("/by-git-url", h.GetByGitURL)
				r.Patch("/{id}", h.Update)
				r.Delete("/{name}", h.Delete)
			})
			r.Get("/environments/{id}/project", h.GetByEnvironment)
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/tokens", cfg.AdminHandler.IssueToken)
			})
		}
	})

	return r
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := chimid.GetReqID(r.Context())
			log.Info().
				Str("request_id", reqID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg("request")
			next.ServeHTTP(w, r)
		})
	}
}
