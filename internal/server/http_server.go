// Package server assembles the HTTP server of the connection registry.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"go.pilab.hu/connections/internal/audit"
	"go.pilab.hu/connections/log"
	"go.pilab.hu/connections/tracing"
)

// Routes is implemented by the APIs mounted on the server.
type Routes interface {
	RegisterRoutes(e *echo.Echo)
}

// Options configures NewHTTPServer.
type Options struct {
	Addr   string
	Logger log.Logger

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// Ready backs /readyz. Nil always reports ready.
	Ready func(ctx context.Context) error
}

// NewHTTPServer creates the echo router with logging, tracing and the operational endpoints,
// mounts the given APIs and wraps it in an HTTP server that also speaks h2c.
func NewHTTPServer(opts Options, apis ...Routes) (*http.Server, *echo.Echo) {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(tracingMiddleware(tracing.Tracer("http")))
	e.Use(requestLogger(opts.Logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/readyz", func(c echo.Context) error {
		if opts.Ready != nil {
			if err := opts.Ready(c.Request().Context()); err != nil {
				opts.Logger.Error(c.Request().Context(), "Readiness check failed", err)
				return c.String(http.StatusServiceUnavailable, "Service not ready")
			}
		}
		return c.String(http.StatusOK, "OK")
	})

	if opts.Gatherer != nil {
		promHandler := promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
		e.GET("/metrics", echo.WrapHandler(promHandler))
	}

	for _, api := range apis {
		api.RegisterRoutes(e)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           h2c.NewHandler(e, &http2.Server{}),
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    8 * 1024,
	}

	return srv, e
}

// tracingMiddleware continues the caller's trace and stores a request scoped zerolog logger in
// the request context, so stores logging through log.Ctx carry the request id.
func tracingMiddleware(tracer trace.Tracer) echo.MiddlewareFunc {
	propagator := otel.GetTextMapPropagator()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := propagator.Extract(req.Context(), propagation.HeaderCarrier(req.Header))

			ctx, span := tracer.Start(ctx, req.Method+" "+c.Path(),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", req.Method),
					attribute.String("http.route", c.Path()),
				))
			defer span.End()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			logger := zlog.Logger.With().Str("request_id", requestID).Logger()
			ctx = audit.WithRequestID(logger.WithContext(ctx), requestID)
			c.SetRequest(req.WithContext(ctx))

			if err := next(c); err != nil {
				span.RecordError(err)
				c.Error(err)
			}

			status := c.Response().Status
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			return nil
		}
	}
}

func requestLogger(logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			fields := map[string]any{
				"method":     req.Method,
				"path":       req.URL.Path,
				"status":     c.Response().Status,
				"latency":    time.Since(start).String(),
				"ip":         c.RealIP(),
				"user_agent": req.UserAgent(),
			}
			if err != nil {
				logger.Error(req.Context(), "HTTP Request", err, fields)
			} else {
				logger.Info(req.Context(), "HTTP Request", fields)
			}
			return nil
		}
	}
}
