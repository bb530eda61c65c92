package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vadimbarashkov/linkshrink/internal/config"
	"github.com/vadimbarashkov/linkshrink/internal/metrics"
	"github.com/vadimbarashkov/linkshrink/internal/shortcode"
	"github.com/vadimbarashkov/linkshrink/internal/tracing"
	"github.com/vadimbarashkov/linkshrink/internal/usecase"
	"github.com/vadimbarashkov/linkshrink/internal/validation"
	"golang.org/x/sync/errgroup"

	deliveryhttp "github.com/vadimbarashkov/linkshrink/internal/adapter/delivery/http"
)

const tracingShutdownTimeout = 5 * time.Second

// NewLogger returns the service logger: concise text in dev, JSON elsewhere.
func NewLogger(cfg *config.Config) *httplog.Logger {
	opts := httplog.Options{
		LogLevel:        slog.LevelInfo,
		JSON:            cfg.Env != config.EnvDev,
		Concise:         cfg.Env == config.EnvDev,
		RequestHeaders:  cfg.Env != config.EnvProd,
		QuietDownRoutes: []string{"/api/v1/ping", "/metrics"},
		QuietDownPeriod: 10 * time.Second,
		Tags: map[string]string{
			"env": cfg.Env,
		},
	}
	if cfg.Env == config.EnvDev {
		opts.LogLevel = slog.LevelDebug
	}

	return httplog.NewLogger("linkshrink", opts)
}

// Run wires storage, caches, the use case and the HTTP server, and serves until ctx is done.
func Run(ctx context.Context, cfg *config.Config, logger *httplog.Logger) error {
	const op = "app.Run"

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.Endpoint, cfg.Tracing.ServiceName, cfg.Tracing.SampleRatio)
	if err != nil {
		return fmt.Errorf("%s: failed to init tracing: %w", op, err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), tracingShutdownTimeout)
		defer cancel()

		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("failed to flush traces", slog.Any("err", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	repo, closeRepo, err := newRepository(ctx, cfg, logger.Logger)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeRepo()

	generator, err := shortcode.New(cfg.ShortCode.Generator, cfg.ShortCode.Length)
	if err != nil {
		return fmt.Errorf("%s: failed to create short code generator: %w", op, err)
	}

	opts := []usecase.Option{
		usecase.WithMaxRetries(cfg.ShortCode.MaxRetries),
		usecase.WithCollisionObserver(m),
	}

	urlCache, closeCache, err := newCache(ctx, cfg, logger.Logger, m)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer closeCache()

	if urlCache != nil {
		opts = append(opts, usecase.WithCache(urlCache))
	}

	urlUseCase := usecase.New(repo, generator, validation.New(), cfg.BaseURL, opts...)

	router := deliveryhttp.NewRouter(logger, urlUseCase,
		deliveryhttp.WithMetrics(m),
		deliveryhttp.WithAllowedOrigins(cfg.HTTPServer.AllowedOrigins...),
	)

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		// In-flight requests keep running during graceful shutdown.
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", server.Addr),
			slog.String("storage", cfg.Storage),
			slog.Bool("tls", cfg.HTTPServer.TLSEnabled()),
		)

		var err error

		if cfg.HTTPServer.TLSEnabled() {
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		logger.Info("shutting down http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
