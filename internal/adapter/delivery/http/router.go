// Package http exposes the URL shortener over HTTP: creation, listing and statistics
// under /api/v1 and redirection from /{shortCode}.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/vadimbarashkov/linkshrink/docs"
	"github.com/vadimbarashkov/linkshrink/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxRequestBodyBytes = 1 << 16

type routerOptions struct {
	metrics        *metrics.Metrics
	allowedOrigins []string
}

type Option func(*routerOptions)

// WithMetrics records request metrics and serves them at /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *routerOptions) {
		o.metrics = m
	}
}

func WithAllowedOrigins(origins ...string) Option {
	return func(o *routerOptions) {
		if len(origins) > 0 {
			o.allowedOrigins = origins
		}
	}
}

// NewRouter initializes a chi router with middleware and routes of the service.
func NewRouter(logger *httplog.Logger, urlUseCase urlUseCase, opts ...Option) *chi.Mux {
	o := routerOptions{
		allowedOrigins: []string{"https://*", "http://*"},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var obs observer = nopObserver{}
	if o.metrics != nil {
		obs = o.metrics
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(otelhttp.NewMiddleware("http.server"))
	if o.metrics != nil {
		r.Use(o.metrics.Middleware)
	}
	r.Use(middleware.RequestSize(maxRequestBodyBytes))

	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics.Handler())
	}

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))

	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(docs.SwaggerYAML)
	})

	h := newURLHandler(urlUseCase, obs)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", handlePing)
		r.Get("/urls", h.listURLs)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", h.shortenURL)
			r.Get("/{shortCode}/stats", h.getURLStats)
		})
	})

	r.Get("/{shortCode}", h.redirect)

	return r
}
