package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	echoapi "go.pilab.hu/connections/api/echo"
	"go.pilab.hu/connections/config"
	"go.pilab.hu/connections/domain"
	"go.pilab.hu/connections/internal/audit"
	"go.pilab.hu/connections/internal/metrics"
	"go.pilab.hu/connections/internal/server"
	"go.pilab.hu/connections/internal/telemetry"
	"go.pilab.hu/connections/log"
	"go.pilab.hu/connections/signin"
	"go.pilab.hu/connections/tracing"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		stdLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	appLogger, err := log.Setup(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		appLogger, _ = log.Setup(zerolog.InfoLevel.String(), cfg.LogPretty)
		appLogger.Warn(context.Background(), "Invalid log_level configured, defaulting to 'info'", map[string]any{
			"configured_log_level": cfg.LogLevel,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info(ctx, "Starting connection registry", map[string]any{
		"http_addr":       cfg.HTTPAddr,
		"store_backend":   cfg.StoreBackend,
		"attempt_backend": cfg.AttemptBackend,
		"providers":       len(cfg.Providers),
		"implicit_signup": cfg.ImplicitSignUp,
	})

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal(ctx, "Connection registry stopped with error", err)
	}
	appLogger.Info(ctx, "Connection registry stopped")
}

func run(ctx context.Context, cfg *config.Config, appLogger log.Logger) error {
	spanWriter := io.Discard
	if cfg.LogLevel == zerolog.DebugLevel.String() || cfg.LogLevel == zerolog.TraceLevel.String() {
		spanWriter = os.Stderr
	}
	tp, err := tracing.InitTracerProvider(tracing.Options{
		ServiceName: cfg.OtelServiceName,
		Writer:      spanWriter,
		Pretty:      cfg.LogPretty,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mp, err := telemetry.InitMeterProvider(reg, cfg.OtelServiceName)
	if err != nil {
		_ = telemetry.Shutdown(ctx, tp, nil)
		return err
	}

	closers := []server.Closer{
		func(ctx context.Context) error {
			return telemetry.Shutdown(ctx, tp, mp)
		},
	}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](context.WithoutCancel(ctx))
		}
	}

	var signUp domain.ConnectionSignUp
	if cfg.ImplicitSignUp {
		signUp = signin.GeneratedUserSignUp()
	}

	store, err := openConnectionStore(ctx, cfg, metrics.NewConnectionMetrics(reg), signUp)
	if err != nil {
		closeAll()
		return err
	}
	closers = append(closers, store.close)

	attempts, closeAttempts, err := openAttemptStore(ctx, cfg)
	if err != nil {
		closeAll()
		return err
	}
	closers = append(closers, closeAttempts)

	locator, err := newLocator(cfg.Providers)
	if err != nil {
		closeAll()
		return err
	}

	signinOpts := []signin.Option{signin.WithAttemptTTL(cfg.AttemptTTL)}
	if cfg.AuditLog {
		signinOpts = append(signinOpts, signin.WithAuditLogger(audit.New(os.Stdout)))
	}
	svc, err := signin.NewService(store.users, attempts, signinOpts...)
	if err != nil {
		closeAll()
		return err
	}

	srv, _ := server.NewHTTPServer(server.Options{
		Addr:     cfg.HTTPAddr,
		Logger:   appLogger,
		Gatherer: reg,
		Ready:    store.ready,
	}, echoapi.NewConnectionsAPI(store.users, locator, svc))

	// Closers run after the server stops, newest resources first.
	reversed := make([]server.Closer, 0, len(closers))
	for i := len(closers) - 1; i >= 0; i-- {
		reversed = append(reversed, closers[i])
	}
	return server.Run(ctx, srv, shutdownTimeout, reversed...)
}
