// Package adapter defines the contract between payment gateway adapters and
// the framework that calls them.
// Adapters translate abstract operations (purchase, capture, refund, void,
// store) into requests against a remote service, and normalize whatever
// comes back, including transport failures, into a Response.
package adapter

import (
	"context"
	"fmt"

	"github.com/yourorg/komoju-gateway/internal/tender"
)

// Well-known error codes produced by adapters themselves rather than by the
// remote service.
const (
	ErrorCodeGatewayTimeout   = "gateway_timeout"
	ErrorCodeProcessingError  = "processing_error"
	ErrorCodeMissingParameter = "missing_parameter"
)

// Response is the normalized outcome of one gateway operation.
// It is built once per call and never mutated afterwards.
type Response struct {
	Success       bool           `json:"success"`
	Authorization string         `json:"authorization,omitempty"` // remote resource id on success
	Params        map[string]any `json:"params,omitempty"`        // full parsed remote body
	Message       string         `json:"message"`
	ErrorCode     string         `json:"error_code,omitempty"` // empty on success
	Test          bool           `json:"test"`
	HTTPStatus    int            `json:"http_status,omitempty"` // when known
}

// Gateway is implemented by each payment gateway adapter.
// No operation returns an error: success is reported solely by
// Response.Success.
type Gateway interface {
	// Name returns the gateway name (e.g. "komoju").
	Name() string

	Purchase(ctx context.Context, amount int64, t tender.Tender, opts tender.Options) Response
	Capture(ctx context.Context, amount int64, t tender.Tender, opts tender.Options) Response
	Refund(ctx context.Context, amount int64, authorization string, opts tender.Options) Response
	Void(ctx context.Context, authorization string, opts tender.Options) Response
	Store(ctx context.Context, t tender.Tender, opts tender.Options) Response
}

// Transport is the collaborator that owns the wire: TLS, pooling, timeouts.
// Send returns the raw 2xx body, or an error. Non-2xx responses and network
// failures are reported as *TransportError.
type Transport interface {
	Send(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error)
}

// TransportError is a failed exchange with the remote service.
// StatusCode is 0 when no HTTP response was received.
type TransportError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport: HTTP %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
