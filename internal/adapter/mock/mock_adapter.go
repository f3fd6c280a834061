package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/tender"
)

// Request is one call recorded by MockTransport.
type Request struct {
	Method  string
	URL     string
	Body    []byte
	Headers map[string]string
}

// MockTransport is a mock implementation of adapter.Transport for testing.
type MockTransport struct {
	SendFunc func(ctx context.Context, req Request) ([]byte, error)

	mu       sync.Mutex
	requests []Request
}

// NewMockTransport creates a new MockTransport.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Send implements adapter.Transport.
// It records the request and calls SendFunc if defined, otherwise it returns
// a captured payment resource with a random id.
func (m *MockTransport) Send(ctx context.Context, method, url string, body []byte, headers map[string]string) ([]byte, error) {
	req := Request{Method: method, URL: url, Body: append([]byte(nil), body...), Headers: headers}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return json.Marshal(map[string]any{
		"id":       uuid.NewString(),
		"resource": "payment",
		"status":   "captured",
	})
}

// Requests returns the recorded requests in call order.
func (m *MockTransport) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// LastRequest returns the most recent request, if any.
func (m *MockTransport) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return Request{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// Call is one operation recorded by MockGateway.
type Call struct {
	Operation     string
	Amount        int64
	Tender        tender.Tender
	Authorization string
	Options       tender.Options
}

// MockGateway is a mock implementation of adapter.Gateway for testing.
type MockGateway struct {
	GatewayName string
	RespondFunc func(call Call) adapter.Response

	mu    sync.Mutex
	calls []Call
}

// NewMockGateway creates a new MockGateway.
func NewMockGateway(name string) *MockGateway {
	return &MockGateway{GatewayName: name}
}

// Name implements adapter.Gateway.
func (m *MockGateway) Name() string {
	return m.GatewayName
}

func (m *MockGateway) Purchase(_ context.Context, amount int64, t tender.Tender, opts tender.Options) adapter.Response {
	return m.record(Call{Operation: "purchase", Amount: amount, Tender: t, Options: opts})
}

func (m *MockGateway) Capture(_ context.Context, amount int64, t tender.Tender, opts tender.Options) adapter.Response {
	return m.record(Call{Operation: "capture", Amount: amount, Tender: t, Authorization: opts.Authorization, Options: opts})
}

func (m *MockGateway) Refund(_ context.Context, amount int64, authorization string, opts tender.Options) adapter.Response {
	return m.record(Call{Operation: "refund", Amount: amount, Authorization: authorization, Options: opts})
}

func (m *MockGateway) Void(_ context.Context, authorization string, opts tender.Options) adapter.Response {
	return m.record(Call{Operation: "void", Authorization: authorization, Options: opts})
}

func (m *MockGateway) Store(_ context.Context, t tender.Tender, opts tender.Options) adapter.Response {
	return m.record(Call{Operation: "store", Tender: t, Options: opts})
}

// Calls returns the recorded operations in call order.
func (m *MockGateway) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// record calls RespondFunc if defined, otherwise returns a default success.
func (m *MockGateway) record(call Call) adapter.Response {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	if m.RespondFunc != nil {
		return m.RespondFunc(call)
	}
	return adapter.Response{
		Success:       true,
		Authorization: uuid.NewString(),
		Params:        map[string]any{"mock_processed": true},
		Message:       "Success",
		Test:          true,
	}
}
