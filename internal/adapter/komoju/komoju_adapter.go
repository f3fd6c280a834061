// Package komoju implements the Gateway contract against the Komoju REST API.
package komoju

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/config"
	"github.com/yourorg/komoju-gateway/internal/monitor"
	"github.com/yourorg/komoju-gateway/internal/tender"
)

const (
	gatewayName = "komoju"

	komojuTestURL = "https://sandbox.komoju.com/api/v1"
	komojuLiveURL = "https://komoju.com/api/v1"

	defaultCurrency   = "JPY"
	userAgent         = "KomojuGateway/v1 (Go)"
	idempotencyHeader = "X-Komoju-Idempotency"
)

const (
	opPurchase = "purchase"
	opCapture  = "capture"
	opRefund   = "refund"
	opVoid     = "void"
	opStore    = "store"
)

// KomojuAdapter implements adapter.Gateway for Komoju.
// It holds only immutable configuration and is safe for concurrent use.
type KomojuAdapter struct {
	transport       adapter.Transport
	apiBaseURL      string
	login           string
	secret          string
	test            bool
	defaultCurrency string
	log             *zap.Logger
	contract        *monitor.ContractMonitor
}

// Option customizes a KomojuAdapter.
type Option func(*KomojuAdapter)

// WithLogger sets the logger used for operation outcomes.
func WithLogger(log *zap.Logger) Option {
	return func(a *KomojuAdapter) {
		if log != nil {
			a.log = log
		}
	}
}

// WithContractMonitor validates successful response bodies against m.
// Violations are logged and never change the Response.
func WithContractMonitor(m *monitor.ContractMonitor) Option {
	return func(a *KomojuAdapter) { a.contract = m }
}

// NewKomojuAdapter creates a KomojuAdapter that sends requests through transport.
func NewKomojuAdapter(cfg config.GatewayConfig, transport adapter.Transport, opts ...Option) *KomojuAdapter {
	if transport == nil {
		panic("transport cannot be nil")
	}

	a := &KomojuAdapter{
		transport:       transport,
		apiBaseURL:      cfg.BaseURL,
		login:           cfg.Login,
		secret:          cfg.Secret,
		test:            cfg.TestMode,
		defaultCurrency: cfg.DefaultCurrency,
		log:             zap.NewNop(),
	}
	if a.apiBaseURL == "" {
		a.apiBaseURL = komojuLiveURL
		if a.test {
			a.apiBaseURL = komojuTestURL
		}
	}
	if a.defaultCurrency == "" {
		a.defaultCurrency = defaultCurrency
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the name of the gateway.
func (a *KomojuAdapter) Name() string {
	return gatewayName
}

// Purchase charges amount against t.
func (a *KomojuAdapter) Purchase(ctx context.Context, amount int64, t tender.Tender, opts tender.Options) adapter.Response {
	return a.commit(ctx, opPurchase, opts, func() (string, any, error) {
		payload, err := a.buildPaymentRequest(amount, t, opts)
		return paymentsPath, payload, err
	})
}

// Capture finalizes a payment.
// Card captures reference opts.Authorization and never resend card data.
// Offline payments reuse the purchase payload; with an authorization the
// capture endpoint of that payment is targeted instead of /payments.
func (a *KomojuAdapter) Capture(ctx context.Context, amount int64, t tender.Tender, opts tender.Options) adapter.Response {
	return a.commit(ctx, opCapture, opts, func() (string, any, error) {
		if t == nil || tender.IsCard(t) {
			if opts.Authorization == "" {
				return "", nil, &missingParameterError{name: "authorization"}
			}
			return capturePath(opts.Authorization), a.buildCaptureRequest(amount, opts), nil
		}

		payload, err := a.buildPaymentRequest(amount, t, opts)
		path := paymentsPath
		if opts.Authorization != "" {
			path = capturePath(opts.Authorization)
		}
		return path, payload, err
	})
}

// Refund returns amount of the payment identified by authorization.
func (a *KomojuAdapter) Refund(ctx context.Context, amount int64, authorization string, opts tender.Options) adapter.Response {
	return a.commit(ctx, opRefund, opts, func() (string, any, error) {
		if authorization == "" {
			return "", nil, &missingParameterError{name: "authorization"}
		}
		return refundPath(authorization), buildRefundRequest(&amount, opts), nil
	})
}

// Void refunds the full captured amount of the payment identified by
// authorization. The refunded total is reported in Params["amount_refunded"].
func (a *KomojuAdapter) Void(ctx context.Context, authorization string, opts tender.Options) adapter.Response {
	return a.commit(ctx, opVoid, opts, func() (string, any, error) {
		if authorization == "" {
			return "", nil, &missingParameterError{name: "authorization"}
		}
		return refundPath(authorization), buildRefundRequest(nil, opts), nil
	})
}

// Store tokenizes t. The token id is returned as the authorization.
func (a *KomojuAdapter) Store(ctx context.Context, t tender.Tender, opts tender.Options) adapter.Response {
	return a.commit(ctx, opStore, opts, func() (string, any, error) {
		payload, err := buildStoreRequest(t, opts)
		return tokensPath, payload, err
	})
}

// commit runs one BUILD -> SEND -> PARSE cycle. Every path ends in a Response.
func (a *KomojuAdapter) commit(ctx context.Context, operation string, opts tender.Options, build func() (string, any, error)) adapter.Response {
	startTime := time.Now()

	var resp adapter.Response
	path, payload, err := build()
	if err != nil {
		resp = a.localFailure(err)
	} else {
		resp = a.send(ctx, path, payload, opts)
	}

	latency := time.Since(startTime)
	observeOperation(operation, resp, latency)
	a.logOutcome(operation, path, resp, latency)
	return resp
}

func (a *KomojuAdapter) send(ctx context.Context, path string, payload any, opts tender.Options) adapter.Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return a.localFailure(fmt.Errorf("komoju: failed to encode request: %w", err))
	}

	raw, err := a.transport.Send(ctx, http.MethodPost, a.apiBaseURL+path, body, a.headers(opts))
	if err != nil {
		return a.parseFailure(err)
	}
	return a.parseSuccess(raw)
}

func (a *KomojuAdapter) headers(opts tender.Options) map[string]string {
	key := opts.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.login + ":" + a.secret))
	return map[string]string{
		"Authorization":   "Basic " + credentials,
		"Accept":          "application/json",
		"Content-Type":    "application/json",
		"User-Agent":      userAgent,
		idempotencyHeader: key,
	}
}

func (a *KomojuAdapter) localFailure(err error) adapter.Response {
	code := adapter.ErrorCodeProcessingError
	var missing *missingParameterError
	if errors.As(err, &missing) {
		code = adapter.ErrorCodeMissingParameter
	}
	return adapter.Response{
		Success:   false,
		Message:   err.Error(),
		ErrorCode: code,
		Test:      a.test,
	}
}

func (a *KomojuAdapter) logOutcome(operation, path string, resp adapter.Response, latency time.Duration) {
	fields := []zap.Field{
		zap.String("gateway", gatewayName),
		zap.String("operation", operation),
		zap.String("path", path),
		zap.Bool("test", resp.Test),
		zap.Duration("latency", latency),
	}
	if resp.Success {
		a.log.Info("Gateway operation succeeded", append(fields, zap.String("authorization", resp.Authorization))...)
		return
	}
	a.log.Warn("Gateway operation failed", append(fields,
		zap.String("error_code", resp.ErrorCode),
		zap.String("message", resp.Message),
		zap.Int("http_status", resp.HTTPStatus),
	)...)
}
