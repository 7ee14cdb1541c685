package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/artpar/schemawire/core/dispatch"
	"github.com/artpar/schemawire/core/render"
)

// RouterConfig holds the wiring for the HTTP surface.
type RouterConfig struct {
	Dispatcher     *dispatch.Dispatcher
	Schema         *render.Service // canonical schema document
	OpenAPI        *render.Service // OpenAPI 3 projection
	Logger         zerolog.Logger
	Version        string
	RequestTimeout time.Duration // default 30s
	MetricsHandler http.Handler  // mounted at MetricsPath when set
	MetricsPath    string        // defaults to /metrics
	EnableDocs     bool          // mounts the Swagger UI at /docs
}

// NewRouter creates the main HTTP router. Reserved paths (schema, docs,
// metrics, version, rpc) are mounted first; everything else falls through
// to the dispatcher.
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(NewRequestIDMiddleware())
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	r.Use(middleware.Timeout(timeout))

	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Get("/schema.json", NewDocumentHandler(cfg.Schema))
	r.Get("/openapi.json", NewDocumentHandler(cfg.OpenAPI))

	if cfg.EnableDocs {
		r.Get("/docs/*", httpSwagger.Handler(
			httpSwagger.URL("/openapi.json"),
		))
	}

	r.Get("/version", NewVersionHandler(cfg.Version))

	r.Post("/rpc/{operation}", NewRPCHandler(cfg.Dispatcher).ServeHTTP)

	r.Handle("/*", NewAPIHandler(cfg.Dispatcher))

	return r
}

// NewRequestIDMiddleware tags every request with a UUID v4 id, keeping an
// inbound X-Request-Id when a proxy already assigned one. The id lives under
// chi's request id key so middleware.GetReqID resolves it, and is echoed in
// the response header.
func NewRequestIDMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}
			ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
			w.Header().Set("X-Request-Id", id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewLoggingMiddleware logs completed requests. Health checks and metrics
// scrapes are served but not logged.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
