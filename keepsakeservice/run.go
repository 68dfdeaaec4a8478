package keepsakeservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/keepsake-ai/keepsake/internal/api"
	"github.com/keepsake-ai/keepsake/internal/api/recovery"
	"github.com/keepsake-ai/keepsake/internal/config"
	"github.com/keepsake-ai/keepsake/internal/engine"
	"github.com/keepsake-ai/keepsake/internal/events"
	"github.com/keepsake-ai/keepsake/internal/health"
	"github.com/keepsake-ai/keepsake/internal/intel"
	"github.com/keepsake-ai/keepsake/internal/logger"
	"github.com/keepsake-ai/keepsake/internal/store"
	"github.com/keepsake-ai/keepsake/internal/store/postgres"
	"github.com/keepsake-ai/keepsake/internal/store/sqlite"
)

// Run starts the keepsake HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("keepsake")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("llm_provider", cfg.LLMProvider).
		Str("llm_model", cfg.LLMModel).
		Int("http_port", cfg.HTTPPort).
		Msg("Keepsake service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Initialize dependencies (store, delegate)
	st, delegate, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Domain event observer; decoupled from the request path
	bus := events.NewBus(64)
	go logEvents(ctx, bus, log)

	// Build router
	router := buildRouter(st, delegate, bus, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st, delegate)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Err(err).Msg("startup health check failed")
		return err
	}

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.FactStore, intel.Delegate, error) {
	st, err := newFactStore(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Fact store unavailable")
		return nil, nil, err
	}

	delegate, err := intel.NewDelegate(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Text-understanding delegate unavailable")
		return nil, nil, err
	}
	return st, delegate, nil
}

// newFactStore selects the persistence driver from configuration.
func newFactStore(ctx context.Context, cfg *config.Config) (store.FactStore, error) {
	switch cfg.DBDriver {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	case "postgres":
		db, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		st := postgres.NewWithDB(db)
		if err := st.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported DB driver: %s", cfg.DBDriver)
	}
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.FactStore, delegate intel.Delegate, bus *events.Bus, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(recovery.Middleware)

	eng := engine.New(st, delegate, bus, log)
	assistant := api.NewAssistantHandler(eng, log)
	root.HandleFunc("/api/assistant/process", assistant.Process).Methods("POST")
	root.HandleFunc("/api/assistant/memory/update", assistant.CommitUpdate).Methods("POST")
	root.HandleFunc("/api/assistant/memory/delete", assistant.CommitDelete).Methods("POST")

	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	return root
}

// logEvents drains the bus and emits one structured log line per domain event.
func logEvents(ctx context.Context, bus *events.Bus, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-bus.Subscribe():
			log.Info().
				Str("event", string(evt.Kind)).
				Str("userId", evt.UserID).
				Str("factId", evt.FactID).
				Msg("memory event")
		}
	}
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.FactStore, delegate intel.Delegate) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	delegateChecker := intel.NewDelegateHealthChecker(delegate, log, probeTimeout)
	go delegateChecker.Start(ctx, interval)
	checkers = append(checkers, delegateChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Health checkers start as unhealthy and need time to run their first check
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
