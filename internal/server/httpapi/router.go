// Package httpapi assembles the HTTP surface of the shop: the GraphQL
// endpoint, health and metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/logging"
	"github.com/dmitrijs2005/gophshop/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Options struct {
	GraphQL       http.Handler
	Authenticator Authenticator
	Metrics       *metrics.Metrics
	Logger        logging.Logger

	CORSOrigins  []string
	CookieSecure bool

	// Ping reports whether the database is reachable. Optional.
	Ping func(ctx context.Context) error
}

// NewRouter builds the handler served by the app.
func NewRouter(o Options) http.Handler {
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(o.Logger))
	r.Use(middleware.Recoverer)
	if o.Metrics != nil {
		r.Use(o.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   o.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", health(o.Ping))
	if o.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(sessionMiddleware(o.Authenticator, o.CookieSecure, o.Logger))
		r.Method(http.MethodGet, "/graphql", o.GraphQL)
		r.Method(http.MethodPost, "/graphql", o.GraphQL)
	})

	return otelhttp.NewHandler(r, "gophshop")
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func health(ping func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, body := http.StatusOK, map[string]any{"ok": true}
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status, body = http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unavailable"}
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
