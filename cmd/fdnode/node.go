package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fdchain/config"
	"fdchain/core"
	"fdchain/core/events"
	"fdchain/gateway/middleware"
	"fdchain/gateway/routes"
	"fdchain/observability"
	"fdchain/observability/logging"
	"fdchain/services/indexer"
	"fdchain/storage"
)

// node bundles the chain database, runtime, event sinks and HTTP handler
// served by fdnode.
type node struct {
	db      *storage.LevelDB
	runtime *core.Runtime
	hub     *events.Hub
	index   *indexer.Indexer
	handler http.Handler
}

func newNode(cfg *config.Config, genesisOverride string, registerer prometheus.Registerer, logger *slog.Logger) (_ *node, err error) {
	db, err := storage.NewLevelDB(cfg.ResolvePath("chain"))
	if err != nil {
		return nil, fmt.Errorf("open chain database: %w", err)
	}
	n := &node{db: db}
	defer func() {
		if err != nil {
			n.Close()
		}
	}()

	n.runtime = core.NewRuntime(db, cfg.Bank)
	n.runtime.SetLogger(logger.With("component", "runtime"))

	if err := applyGenesis(n.runtime, cfg, genesisOverride, logger); err != nil {
		return nil, err
	}

	n.hub = events.NewHub()
	emitters := events.Multi{observability.Bank(), n.hub}
	if driver := strings.TrimSpace(cfg.Indexer.Driver); driver != "" {
		dsn := cfg.Indexer.DSN
		if driver == "sqlite" && !strings.HasPrefix(dsn, "file:") {
			dsn = cfg.ResolvePath(dsn)
		}
		gdb, err := indexer.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("open indexer: %w", err)
		}
		n.index, err = indexer.New(gdb, logger.With("component", "indexer"))
		if err != nil {
			return nil, fmt.Errorf("start indexer: %w", err)
		}
		emitters = append(emitters, n.index)
		logger.Info("event indexer enabled", logging.MaskField("driver", driver), slog.String("dsn", logging.MaskDSN(dsn)))
	}
	n.runtime.SetEmitter(emitters)

	n.handler, err = newGateway(cfg, n.runtime, n.index, n.hub, registerer, logger)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// Close releases the indexer connection and the chain database.
func (n *node) Close() {
	if n == nil {
		return
	}
	if n.index != nil {
		_ = n.index.Close()
		n.index = nil
	}
	if n.db != nil {
		n.db.Close()
		n.db = nil
	}
}

func applyGenesis(runtime *core.Runtime, cfg *config.Config, override string, logger *slog.Logger) error {
	path := strings.TrimSpace(override)
	if path == "" {
		path = strings.TrimSpace(cfg.GenesisFile)
	}
	if path == "" {
		return nil
	}
	applied, err := runtime.GenesisApplied()
	if err != nil {
		return err
	}
	if applied {
		logger.Info("genesis already applied; skipping", "file", path)
		return nil
	}
	genesis, err := config.LoadGenesis(path)
	if err != nil {
		return err
	}
	return runtime.ApplyGenesis(genesis)
}

func newGateway(cfg *config.Config, runtime *core.Runtime, eventIndex *indexer.Indexer, hub *events.Hub, registerer prometheus.Registerer, logger *slog.Logger) (http.Handler, error) {
	gw := cfg.Gateway
	secret := ""
	if gw.JWTSecretEnv != "" {
		secret = os.Getenv(gw.JWTSecretEnv)
	}
	if strings.TrimSpace(secret) == "" {
		logger.Warn("gateway JWT secret not set; write routes are disabled", "env", gw.JWTSecretEnv)
	} else {
		logger.Info("gateway auth enabled", logging.MaskField("jwtSecret", secret), "issuer", gw.JWTIssuer)
	}
	auth := middleware.NewAuthenticator(middleware.AuthConfig{
		Enabled:    strings.TrimSpace(secret) != "",
		HMACSecret: secret,
		Issuer:     gw.JWTIssuer,
		Audience:   gw.JWTAudience,
	}, logger)

	limit := middleware.RateLimit{RatePerSecond: gw.RateLimitPerSecond, Burst: gw.RateLimitBurst}
	limiter := middleware.NewRateLimiter(map[string]middleware.RateLimit{
		"bank":  limit,
		"chain": limit,
	}, logger)

	obs := middleware.NewObservability(middleware.ObservabilityConfig{
		LogRequests: strings.EqualFold(cfg.Env, "dev"),
		Registerer:  registerer,
	}, logger)

	routeCfg := routes.Config{
		Runtime:        runtime,
		Stream:         hub,
		Authenticator:  auth,
		RateLimiter:    limiter,
		Observability:  obs,
		CORS:           middleware.CORSConfig{AllowedOrigins: gw.AllowedOrigins},
		BankMetrics:    observability.Bank(),
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	}
	if eventIndex != nil {
		routeCfg.Events = eventIndex
	}
	return routes.New(routeCfg)
}
