package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter/komoju"
	"github.com/yourorg/komoju-gateway/internal/circuitbreaker"
	"github.com/yourorg/komoju-gateway/internal/config"
	"github.com/yourorg/komoju-gateway/internal/logging"
	"github.com/yourorg/komoju-gateway/internal/monitor"
	"github.com/yourorg/komoju-gateway/internal/policy"
	"github.com/yourorg/komoju-gateway/internal/processor"
	"github.com/yourorg/komoju-gateway/internal/reporting"
	"github.com/yourorg/komoju-gateway/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("KOMOJU_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	tp, shutdownTracing, err := newTracerProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}()

	breakers := circuitbreaker.NewRegistry(cfg.CircuitBreaker, logger)
	httpTransport := transport.NewHTTPTransport(cfg.Gateway, breakers,
		transport.WithTracerProvider(tp),
		transport.WithLogger(logger),
	)
	gateway := komoju.NewKomojuAdapter(cfg.Gateway, httpTransport,
		komoju.WithLogger(logger),
		komoju.WithContractMonitor(monitor.ResourceMonitor()),
	)

	enforcer, err := policy.NewPaymentPolicyEnforcer(policy.DefaultRules())
	if err != nil {
		return fmt.Errorf("failed to initialize policy enforcer: %w", err)
	}

	if cfg.Logging.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(dependencies{
		processor:       processor.NewProcessor(gateway),
		policy:          enforcer,
		reporter:        reporting.NewRetrospectiveReporter(),
		requestMonitor:  monitor.OperationRequestMonitor(),
		tracerProvider:  tp,
		log:             logger,
		defaultCurrency: cfg.Gateway.DefaultCurrency,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.Bool("test_mode", cfg.Gateway.TestMode),
			zap.String("gateway", gateway.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newTracerProvider returns the global provider when tracing is disabled.
func newTracerProvider(cfg config.TracingConfig) (trace.TracerProvider, func(context.Context) error, error) {
	if !cfg.Enabled {
		return otel.GetTracerProvider(), func(context.Context) error { return nil }, nil
	}
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp, tp.Shutdown, nil
}
