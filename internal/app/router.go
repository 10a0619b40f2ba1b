package app

import (
	"context"
	"net/http"
	"time"

	"github.com/dmehra2102/TodoList/internal/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterOptions struct {
	APIRoot        string
	AllowedOrigins []string
	RequestTimeout time.Duration
	RateLimiter    *middleware.RateLimiter
	EnableMetrics  bool
}

// NewRouter wires the todo item routes, health probes and middleware chain.
func NewRouter(items *TodoItemsHandler, store Pinger, logger *zap.Logger, opts RouterOptions) http.Handler {
	r := mux.NewRouter()

	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)
	if opts.EnableMetrics {
		r.Use(middleware.Metrics())
	}
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware())
	}
	r.Use(middleware.Timeout(opts.RequestTimeout))

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", readyzHandler(store)).Methods(http.MethodGet)

	api := r
	if opts.APIRoot != "" && opts.APIRoot != "/" {
		api = r.PathPrefix(opts.APIRoot).Subrouter()
	}
	items.RegisterRoutes(api)

	// Preflight requests match no route, so CORS wraps the router itself.
	return middleware.CORS(opts.AllowedOrigins)(r)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func readyzHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		if err := store.PingContext(ctx); err != nil {
			writeText(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeText(w, http.StatusOK, "ready")
	}
}
