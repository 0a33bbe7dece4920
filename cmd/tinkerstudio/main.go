package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driven/catalog"
	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driven/metrics"
	"github.com/ericfisherdev/tinkerstudio/internal/adapter/driven/tinker"
	httphandler "github.com/ericfisherdev/tinkerstudio/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/tinkerstudio/internal/adapter/driving/web"
	"github.com/ericfisherdev/tinkerstudio/internal/application"
	"github.com/ericfisherdev/tinkerstudio/internal/config"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// pageSweepInterval is how often idle pages are evicted.
const pageSweepInterval = time.Minute

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// newRootCommand builds the tinkerstudio command. Flags override the
// matching TINKERSTUDIO_ environment variables.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tinkerstudio",
		Short:         "Serve the Tinker Studio model browser",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen-addr", "", "address to listen on (TINKERSTUDIO_LISTEN_ADDR)")
	cmd.Flags().String("api-base", "", "base URL the page fetches models from (TINKERSTUDIO_API_BASE)")
	cmd.Flags().String("upstream-url", "", "upstream model service URL (TINKERSTUDIO_UPSTREAM_URL)")

	return cmd
}

// applyFlags copies explicitly set flags over the environment configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"listen-addr", &cfg.ListenAddr},
		{"api-base", &cfg.APIBase},
		{"upstream-url", &cfg.UpstreamURL},
	}

	for _, o := range overrides {
		if !cmd.Flags().Changed(o.name) {
			continue
		}
		v, err := cmd.Flags().GetString(o.name)
		if err != nil {
			return err
		}
		*o.dst = v
	}
	return nil
}

func run(parent context.Context, cfg *config.Config) error {
	// 1. Logger at the configured level.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"catalog_base_url", cfg.CatalogBaseURL(),
		"upstream_configured", cfg.HasUpstream(),
		"page_idle_timeout", cfg.PageIdleTimeout,
		"collation_locale", cfg.CollationLocale.String(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Metrics registry.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// 4. Wire the model browser: catalog client, sorter and page sessions.
	modelCatalog := m.InstrumentCatalog(catalog.NewClient(cfg.CatalogBaseURL()))
	sorter := application.NewModelSorter(cfg.CollationLocale)
	pages := application.NewPageRegistry(func() *application.ModelBrowser {
		return application.NewModelBrowser(modelCatalog, sorter, logger)
	}, cfg.PageIdleTimeout)
	m.ObserveOpenPages(pages.Len)
	go pages.Run(ctx, pageSweepInterval)

	// 5. Upstream service for the backend API (optional).
	var upstream driven.TinkerService
	if cfg.HasUpstream() {
		upstream = m.InstrumentUpstream(tinker.NewClient(cfg.UpstreamURL, cfg.UpstreamTimeout))
		slog.Info("upstream client created", "url", cfg.UpstreamURL)
	} else {
		slog.Info("no upstream configured, model requests will be answered with 503")
	}
	catalogSvc := application.NewCatalogService(upstream)

	// 6. Register API, metrics and GUI routes.
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, httphandler.NewHandler(catalogSvc, logger))
	httphandler.RegisterMetricsRoute(mux, registry)
	webhandler.RegisterRoutes(mux, webhandler.NewHandler(pages, cfg.Notice, logger))

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	slog.Info("tinkerstudio started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal or a server failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}

	// 8. Graceful shutdown with 10s timeout for in-flight fetches.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
