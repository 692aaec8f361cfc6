package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookworm/backend/internal/middleware"
)

type RouterOptions struct {
	// AllowedOrigins defaults to any origin.
	AllowedOrigins []string
	// EnableMetrics mounts /metrics and the request metrics middleware.
	EnableMetrics bool
}

func NewRouter(items *ItemsHandler, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimw.Recoverer)
	if opts.EnableMetrics {
		r.Use(middleware.Metrics)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", items.Root)
	r.Get("/health", items.Health)
	if opts.EnableMetrics {
		r.Handle("/metrics", middleware.MetricsHandler())
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", items.ListItems)
		r.Post("/", items.CreateItem)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", items.GetItem)
			r.Patch("/", items.UpdateItem)
		})
	})

	return r
}
