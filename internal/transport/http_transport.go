// Package transport is the net/http implementation of adapter.Transport.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/circuitbreaker"
	"github.com/yourorg/komoju-gateway/internal/config"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20
	tracerName      = "transport"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "komoju_transport_requests_total",
		Help: "Outbound HTTP requests by method and status (code, error or rejected).",
	}, []string{"method", "status"})

	requestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "komoju_transport_request_duration_seconds",
		Help:    "Latency of outbound HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

// GetRequestsTotal exposes the request counter for tests and dashboards.
func GetRequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// GetRequestDurationSeconds exposes the request latency histogram.
func GetRequestDurationSeconds() *prometheus.HistogramVec {
	return requestDurationSeconds
}

// HTTPTransport sends requests with an http.Client guarded by a per-host
// circuit breaker. It never retries.
type HTTPTransport struct {
	client   *http.Client
	breakers *circuitbreaker.Registry
	tracer   trace.Tracer
	log      *zap.Logger
}

// Option customizes an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(t *HTTPTransport) {
		if tp != nil {
			t.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithLogger sets the logger used for per-request debug output.
func WithLogger(log *zap.Logger) Option {
	return func(t *HTTPTransport) {
		if log != nil {
			t.log = log
		}
	}
}

// NewHTTPTransport creates an HTTPTransport. A nil registry disables the
// circuit breaker.
func NewHTTPTransport(cfg config.GatewayConfig, breakers *circuitbreaker.Registry, opts ...Option) *HTTPTransport {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if breakers == nil {
		breakers = circuitbreaker.NewRegistry(config.CircuitBreakerConfig{Enabled: false}, nil)
	}
	t := &HTTPTransport{
		client:   &http.Client{Timeout: timeout},
		breakers: breakers,
		tracer:   otel.Tracer(tracerName),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send implements adapter.Transport.
// Timeouts are reported as HTTP 504 and breaker rejections as HTTP 503, both
// as *adapter.TransportError.
func (t *HTTPTransport) Send(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, error) {
	startTime := time.Now()

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &adapter.TransportError{Err: fmt.Errorf("invalid url: %w", err)}
	}

	ctx, span := t.tracer.Start(ctx, "HTTPTransport.Send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", u.Redacted()),
			attribute.String("net.peer.name", u.Host),
		),
	)
	defer span.End()

	var statusCode int
	respBody, err := t.breakers.Execute(u.Host, func() ([]byte, error) {
		b, code, err := t.do(ctx, method, rawURL, body, headers)
		statusCode = code
		return b, err
	})
	if circuitbreaker.IsRejection(err) {
		err = &adapter.TransportError{StatusCode: http.StatusServiceUnavailable, Err: err}
	}

	status := statusLabel(statusCode, err)
	requestsTotal.WithLabelValues(method, status).Inc()
	requestDurationSeconds.WithLabelValues(method).Observe(time.Since(startTime).Seconds())

	var tErr *adapter.TransportError
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	case errors.As(err, &tErr):
		if tErr.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", tErr.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	t.log.Debug("Outbound request finished",
		zap.String("method", method),
		zap.String("host", u.Host),
		zap.String("path", u.Path),
		zap.String("status", status),
		zap.Duration("latency", time.Since(startTime)),
	)
	return respBody, err
}

// do performs one exchange and returns the body and status code of a 2xx
// response.
func (t *HTTPTransport) do(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &adapter.TransportError{Err: fmt.Errorf("failed to create http request: %w", err)}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, &adapter.TransportError{StatusCode: http.StatusGatewayTimeout, Err: err}
		}
		return nil, 0, &adapter.TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if isTimeout(err) {
			return nil, 0, &adapter.TransportError{StatusCode: http.StatusGatewayTimeout, Err: err}
		}
		return nil, 0, &adapter.TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, 0, &adapter.TransportError{StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func statusLabel(statusCode int, err error) string {
	if err == nil {
		return strconv.Itoa(statusCode)
	}
	var tErr *adapter.TransportError
	if errors.As(err, &tErr) {
		if circuitbreaker.IsRejection(tErr.Err) {
			return "rejected"
		}
		if tErr.StatusCode != 0 {
			return strconv.Itoa(tErr.StatusCode)
		}
	}
	return "error"
}
