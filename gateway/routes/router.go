package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"fdchain/core"
	"fdchain/gateway/middleware"
	"fdchain/observability"
)

const serviceName = "fd-gateway"

type Config struct {
	Runtime        *core.Runtime
	Events         EventQuerier
	Stream         EventStream
	Authenticator  *middleware.Authenticator
	RateLimiter    *middleware.RateLimiter
	Observability  *middleware.Observability
	CORS           middleware.CORSConfig
	BankMetrics    *observability.BankMetrics
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// New builds the HTTP API. Read routes are public; deposit and lock routes
// require a bearer token whose subject is the caller address; administration
// routes additionally require the bank:admin scope.
func New(cfg Config) (http.Handler, error) {
	if cfg.Runtime == nil {
		return nil, errors.New("gateway: runtime required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auth := cfg.Authenticator
	if auth == nil {
		auth = middleware.NewAuthenticator(middleware.AuthConfig{}, logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.CORS))
	if cfg.Observability != nil {
		r.Use(cfg.Observability.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	bank := &bankRoutes{runtime: cfg.Runtime, metrics: cfg.BankMetrics, logger: logger.With("module", "bank")}
	chain := &chainRoutes{runtime: cfg.Runtime, events: cfg.Events, logger: logger}
	stream := &streamRoutes{stream: cfg.Stream, origins: cfg.CORS.AllowedOrigins, logger: logger}
	admin := &adminRoutes{runtime: cfg.Runtime, logger: logger}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Route("/bank", func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware("bank"))
			}
			bank.mount(sr, auth)
		})
		v1.Group(func(sr chi.Router) {
			if cfg.RateLimiter != nil {
				sr.Use(cfg.RateLimiter.Middleware("chain"))
			}
			chain.mount(sr)
		})
		v1.Get("/events/stream", stream.streamEvents)
		v1.Route("/admin", func(sr chi.Router) {
			sr.Use(auth.Middleware(middleware.ScopeAdmin))
			admin.mount(sr)
		})
	})

	return otelhttp.NewHandler(r, serviceName), nil
}
