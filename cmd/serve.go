package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/fieldops/techrank/internal/adapters/http/api"
	"github.com/fieldops/techrank/internal/adapters/http/swagger"
	"github.com/fieldops/techrank/internal/adapters/insight"
	app "github.com/fieldops/techrank/internal/app"
	"github.com/fieldops/techrank/internal/config"
	"github.com/fieldops/techrank/pkg/cache"
	"github.com/fieldops/techrank/pkg/logger"
	"github.com/fieldops/techrank/pkg/metrics"
)

// HTTP server timeout constants. The write timeout covers a full insight
// call including retries.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 3 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			return runServe(cmd.Context(), c.cfg, c.logger, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides addr)")
	return cmd
}

// runServe starts the service and HTTP server and blocks until ctx is done.
// When ready is non-nil it receives the bound listener address.
func runServe(ctx context.Context, cfg *config.Config, l logger.Logger, ready chan<- string) error {
	gen, closeGen := buildGenerator(ctx, cfg, l)
	defer closeGen()

	opts := []app.Option{
		app.WithLogger(l),
		app.WithDataPath(cfg.DataPath),
		app.WithDataFormat(cfg.DataFormat),
		app.WithDropOrphans(cfg.DropOrphans),
	}
	if gen != nil {
		opts = append(opts, app.WithGenerator(gen))
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		l.Error(ctx, "failed to start service", logger.Error(err))
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	if err := metrics.StartSystemCollector(ctx); err != nil {
		l.Warn(ctx, "system metrics collector not started", logger.Error(err))
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer := api.NewServer(svc, svc, api.WithCORSOrigin(cfg.CORSOrigin), api.WithLogger(l))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info(ctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or a server failure
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	l.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("shutdown: %w", err)
	}

	l.Info(ctx, "server stopped")
	return nil
}

// buildGenerator wires the insight client, rate limiter and optional redis
// cache. It returns nil when insights are disabled or no API key is set;
// an unreachable redis only disables caching.
func buildGenerator(ctx context.Context, cfg *config.Config, l logger.Logger) (*insight.Generator, func()) {
	noop := func() {}
	if !cfg.Insight.Active() {
		l.Info(ctx, "AI insights disabled", logger.Any("enabled", cfg.Insight.Enabled))
		return nil, noop
	}

	var limiter *rate.Limiter
	if cfg.Insight.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Insight.RatePerSec), max(cfg.Insight.Burst, 1))
	}
	client := insight.NewClient(insight.ClientConfig{
		APIKey:     cfg.Insight.APIKey,
		BaseURL:    cfg.Insight.BaseURL,
		Model:      cfg.Insight.Model,
		MaxTokens:  cfg.Insight.MaxTokens,
		Timeout:    cfg.Insight.Timeout(),
		MaxRetries: cfg.Insight.MaxRetries,
		Limiter:    limiter,
		Logger:     l.Named("insight"),
	})

	opts := []insight.GeneratorOption{insight.WithLogger(l.Named("insight"))}
	closer := noop
	if cfg.Redis.Addr != "" && cfg.Insight.CacheTTL() > 0 {
		rc, err := cache.New(ctx,
			cache.WithAddress(cfg.Redis.Addr),
			cache.WithPassword(cfg.Redis.Password),
			cache.WithDB(cfg.Redis.DB),
		)
		if err != nil {
			l.Warn(ctx, "insight cache unavailable; continuing without it",
				logger.String("redis_addr", cfg.Redis.Addr), logger.Error(err))
		} else {
			opts = append(opts, insight.WithCache(rc, cfg.Insight.CacheTTL()))
			closer = func() { _ = rc.Close() }
		}
	}

	l.Info(ctx, "AI insights enabled", logger.String("model", cfg.Insight.Model))
	return insight.NewGenerator(client, opts...), closer
}
