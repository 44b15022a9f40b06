package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/lineowners/internal/config"
	"github.com/JonMunkholm/lineowners/internal/core"
	"github.com/JonMunkholm/lineowners/internal/export"
	"github.com/JonMunkholm/lineowners/internal/logging"
	"github.com/JonMunkholm/lineowners/internal/metrics"
	"github.com/JonMunkholm/lineowners/internal/session"
	"github.com/JonMunkholm/lineowners/internal/source"
	"github.com/JonMunkholm/lineowners/internal/web"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"database", cfg.UsesDatabase(),
		"facets", cfg.Dataset.Facets,
		"use_index", cfg.Filter.UseIndex,
		"export_max_concurrent", cfg.Export.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load the dataset; any failure is fatal.
	ds, err := source.Open(ctx, source.FromConfig(cfg))
	if err != nil {
		slog.Error("failed to load dataset",
			"error", err,
			"message", core.FormatUserError(err),
		)
		os.Exit(1)
	}

	catalog, err := core.NewCatalog(ds, cfg.Dataset.Facets, core.CatalogOptions{UseIndex: cfg.Filter.UseIndex})
	if err != nil {
		slog.Error("failed to build facet catalog", "error", err)
		os.Exit(1)
	}
	for _, f := range catalog.Facets() {
		slog.Debug("facet indexed", "facet", f.Column(), "values", f.Len())
	}

	mode, err := core.ParseMode(cfg.Filter.DefaultMode)
	if err != nil {
		slog.Error("invalid filter mode", "error", err)
		os.Exit(1)
	}

	m := metrics.New(cfg.Metrics.Enabled)
	m.SetDatasetRows(ds.Len())

	sessions := session.NewStore(func() *core.Engine {
		return catalog.NewEngine(core.WithMode(mode), core.WithObserver(m))
	}, session.Options{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Recorder:    m,
	})

	server := web.NewServer(cfg, web.Deps{
		Catalog:  catalog,
		Sessions: sessions,
		Exports:  export.NewLimiter(cfg.Export.MaxConcurrent, cfg.Export.MaxWait),
		Metrics:  m,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Expire idle sessions until shutdown.
	g.Go(func() error {
		return sessions.Run(gctx, cfg.Session.SweepInterval)
	})

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
