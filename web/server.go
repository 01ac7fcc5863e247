package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RequestIDHeader carries the per-request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Runner runs speaker commands. *client.Client implements it.
type Runner interface {
	Run(ctx context.Context, target, command string) (json.RawMessage, error)
	SetVolume(ctx context.Context, target string, gain float64) error
	Commands() []string
}

// Server exposes a Runner over HTTP against a fixed target.
type Server struct {
	runner   Runner
	target   string
	registry *prometheus.Registry
	metrics  *metrics
}

// NewServer returns a server that runs commands against target. Metrics are
// registered on reg; a fresh registry is used when reg is nil.
func NewServer(runner Runner, target string, reg *prometheus.Registry) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	return &Server{
		runner:   runner,
		target:   target,
		registry: reg,
		metrics:  newMetrics(reg),
	}
}

// Routes returns the HTTP routes for the control API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/commands", s.HandleCommands)
	r.Post("/api/commands/{name}", s.HandleRunCommand)
	r.Post("/api/volume", s.HandleVolume)
	r.Get("/api/state", s.HandleState)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

type ctxKey struct{}

// requestID tags every request with an ID, reusing the caller's if present.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(ctxKey{}).(string)
	return slog.With("request_id", id, "method", r.Method, "path", r.URL.Path)
}
