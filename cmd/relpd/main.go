package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"relpchain/config"
	"relpchain/core"
	"relpchain/gateway/middleware"
	"relpchain/gateway/routes"
	"relpchain/observability/logging"
	telemetry "relpchain/observability/otel"
	"relpchain/storage"
	"relpchain/storage/eventlog"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./relp.toml", "path to node configuration")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		slog.Error("relpd exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := logging.Setup("relpd", cfg.Environment, cfg.LogLevel)
	logger.Info("configuration loaded",
		slog.String("listen", cfg.ListenAddress),
		slog.String("datadir", cfg.DataDir),
		slog.String("network", cfg.NetworkName),
		slog.Bool("auth", cfg.Auth.Enabled),
		logging.MaskField("hmacSecret", cfg.Auth.HMACSecret),
		logging.MaskField("otlpHeaders", cfg.Telemetry.Headers))

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: "relpd",
		Environment: cfg.Environment,
		Network:     cfg.NetworkName,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	params, err := cfg.Engine.Params()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return err
	}
	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		return err
	}
	journal, err := eventlog.Open(eventlog.FileDSN(cfg.EventLogFile()))
	if err != nil {
		db.Close()
		return err
	}
	node, err := core.NewNode(db, params, core.WithJournal(journal), core.WithLogger(logger))
	if err != nil {
		_ = journal.Close()
		db.Close()
		return err
	}
	defer func() {
		if err := node.Close(); err != nil {
			logger.Error("node close failed", slog.String("error", err.Error()))
		}
	}()

	limit := middleware.RateLimit{
		RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
		Burst:             cfg.RateLimit.Burst,
	}
	router, err := routes.New(routes.Config{
		Ledger: node,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  30 * time.Second,
		}, logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			routes.LimitQuery: limit,
			routes.LimitTx:    limit,
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			LogRequests: cfg.Environment == "dev",
		}, logger),
		CORS: middleware.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", middleware.RequestIDHeader},
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	handler := http.Handler(router)
	if cfg.Telemetry.Traces {
		handler = otelhttp.NewHandler(router, "relpd")
	}
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("listen", listener.Addr().String()))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.String("error", err.Error()))
	}
	return nil
}
