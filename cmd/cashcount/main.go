package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"cashcount/internal/backend"
	"cashcount/internal/cache"
	"cashcount/internal/cli"
	"cashcount/internal/currency"
	apphttp "cashcount/internal/http"
	applog "cashcount/internal/log"
	"cashcount/internal/middleware/ratelimit"
	"cashcount/internal/session"
)

const (
	sessionSweepInterval = 10 * time.Minute
	shutdownTimeout      = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLoggerFromEnv()

	cfg, err := cli.LoadAndValidateConfig(logger.Logger)
	if err != nil {
		os.Exit(1)
	}
	// LOG_* may have come from .env; rebuild with the validated values.
	logger = cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid catalog configuration", applog.FieldError, err)
		os.Exit(1)
	}
	catalogLogger := logger.WithComponent(applog.ComponentCatalog)
	res, err := backend.NewFactory(catalogLogger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to load catalog",
			applog.FieldCatalogSource, cfg.CatalogSource,
			applog.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Catalog source close failed", applog.FieldError, err)
		}
	}()

	formatter, err := currency.New(cfg.Locale, cfg.CurrencyCode, cfg.CurrencySymbol)
	if err != nil {
		logger.Error("Invalid currency settings",
			"locale", cfg.Locale,
			"currency", cfg.CurrencyCode,
			applog.FieldError, err)
		os.Exit(1)
	}

	sessionLogger := logger.WithComponent(applog.ComponentSession)
	registry := session.NewRegistry(res.Catalog, session.Config{
		TTL:         cfg.SessionTTL,
		MaxSessions: cfg.MaxSessions,
	}, cache.WithEvictCallback(func(id string, _ *session.Session) {
		sessionLogger.Debug("Session evicted", applog.FieldSessionID, id)
	}))

	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(registry.Cache())
	caches.StartCleanup(sessionSweepInterval)

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerMinute = cfg.RateLimitPerMinute

	srv, err := apphttp.NewServer(apphttp.ServerConfig{
		Addr:      ":" + cfg.Port,
		Registry:  registry,
		Formatter: formatter,
		Logger:    logger,
		RateLimit: rl,
		Caches:    caches,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting cashcount server",
			"port", cfg.Port,
			applog.FieldCatalogSource, cfg.CatalogSource,
			"denominations", res.Catalog.Len(),
			"currency", formatter.Code())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
