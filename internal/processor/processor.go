// Package processor dispatches serialized operation requests to registered
// gateways.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourorg/komoju-gateway/internal/adapter"
	"github.com/yourorg/komoju-gateway/internal/tender"
)

// Operation names accepted in OperationRequest.Operation.
const (
	OperationPurchase = "purchase"
	OperationCapture  = "capture"
	OperationRefund   = "refund"
	OperationVoid     = "void"
	OperationStore    = "store"
)

var (
	ErrUnknownGateway   = errors.New("unknown gateway")
	ErrUnknownOperation = errors.New("unknown operation")
	ErrMissingTender    = errors.New("a card or offline payment is required")
	ErrAmbiguousTender  = errors.New("only one of card or offline payment may be given")
	ErrInvalidAmount    = errors.New("amount must be positive")
)

type Card struct {
	Number            string `json:"number"`
	Month             int    `json:"month"`
	Year              int    `json:"year"`
	VerificationValue string `json:"verification_value,omitempty"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
}

type OfflinePayment struct {
	Method string `json:"method"`
	Store  string `json:"store,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type Options struct {
	OrderID          string `json:"order_id,omitempty"`
	Description      string `json:"description,omitempty"`
	Tax              string `json:"tax,omitempty"`
	Currency         string `json:"currency,omitempty"`
	IP               string `json:"ip,omitempty"`
	Email            string `json:"email,omitempty"`
	BrowserLanguage  string `json:"browser_language,omitempty"`
	BrowserUserAgent string `json:"browser_user_agent,omitempty"`
	RefundMessage    string `json:"refund_message,omitempty"`
	Authorization    string `json:"authorization,omitempty"`
	IdempotencyKey   string `json:"idempotency_key,omitempty"`
}

// OperationRequest is the wire form of one gateway operation.
// Authorization identifies the payment for capture, refund and void; it
// takes precedence over Options.Authorization.
type OperationRequest struct {
	Gateway       string          `json:"gateway,omitempty"`
	Operation     string          `json:"operation"`
	Amount        int64           `json:"amount,omitempty"`
	Authorization string          `json:"authorization,omitempty"`
	Card          *Card           `json:"card,omitempty"`
	Offline       *OfflinePayment `json:"offline,omitempty"`
	Options       Options         `json:"options,omitempty"`
}

// Result pairs a batch request with its outcome. Err is set only for
// request-level problems; gateway failures are reported in Response.
type Result struct {
	Request  OperationRequest
	Response adapter.Response
	Err      error
}

// Processor selects the gateway for a request and calls the matching
// operation. It is safe for concurrent use.
type Processor struct {
	gateways       map[string]adapter.Gateway
	defaultGateway string
}

// NewProcessor registers gateways by name. The first gateway handles
// requests that do not name one.
func NewProcessor(gateways ...adapter.Gateway) *Processor {
	if len(gateways) == 0 {
		panic("at least one gateway is required")
	}
	registry := make(map[string]adapter.Gateway, len(gateways))
	for _, gw := range gateways {
		registry[gw.Name()] = gw
	}
	return &Processor{gateways: registry, defaultGateway: gateways[0].Name()}
}

// Process runs one operation.
func (p *Processor) Process(ctx context.Context, req OperationRequest) (adapter.Response, error) {
	name := req.Gateway
	if name == "" {
		name = p.defaultGateway
	}
	gw, ok := p.gateways[name]
	if !ok {
		return adapter.Response{}, fmt.Errorf("%w: %s", ErrUnknownGateway, name)
	}

	t, err := tenderFrom(req)
	if err != nil {
		return adapter.Response{}, err
	}
	opts := optionsFrom(req)

	switch req.Operation {
	case OperationPurchase:
		if t == nil {
			return adapter.Response{}, ErrMissingTender
		}
		return gw.Purchase(ctx, req.Amount, t, opts), nil
	case OperationCapture:
		return gw.Capture(ctx, req.Amount, t, opts), nil
	case OperationRefund:
		if req.Amount <= 0 {
			return adapter.Response{}, fmt.Errorf("%w for refund; use void to refund the full amount", ErrInvalidAmount)
		}
		return gw.Refund(ctx, req.Amount, opts.Authorization, opts), nil
	case OperationVoid:
		return gw.Void(ctx, opts.Authorization, opts), nil
	case OperationStore:
		if t == nil {
			return adapter.Response{}, ErrMissingTender
		}
		return gw.Store(ctx, t, opts), nil
	default:
		return adapter.Response{}, fmt.Errorf("%w: %q", ErrUnknownOperation, req.Operation)
	}
}

// ProcessBatch runs reqs concurrently and returns results in request order.
func (p *Processor) ProcessBatch(ctx context.Context, reqs []OperationRequest) []Result {
	results := make([]Result, len(reqs))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req OperationRequest) {
			defer wg.Done()
			resp, err := p.Process(ctx, req)
			results[i] = Result{Request: req, Response: resp, Err: err}
		}(i, req)
	}
	wg.Wait()
	return results
}

func tenderFrom(req OperationRequest) (tender.Tender, error) {
	switch {
	case req.Card != nil && req.Offline != nil:
		return nil, ErrAmbiguousTender
	case req.Card != nil:
		return tender.StoredCard{
			Number:            req.Card.Number,
			Month:             req.Card.Month,
			Year:              req.Card.Year,
			VerificationValue: req.Card.VerificationValue,
			FirstName:         req.Card.FirstName,
			LastName:          req.Card.LastName,
		}, nil
	case req.Offline != nil:
		return tender.OfflinePayment{
			Method: req.Offline.Method,
			Store:  req.Offline.Store,
			Email:  req.Offline.Email,
			Phone:  req.Offline.Phone,
		}, nil
	}
	return nil, nil
}

func optionsFrom(req OperationRequest) tender.Options {
	o := req.Options
	opts := tender.Options{
		OrderID:          o.OrderID,
		Description:      o.Description,
		Tax:              o.Tax,
		Currency:         o.Currency,
		CustomerIP:       o.IP,
		CustomerEmail:    o.Email,
		BrowserLanguage:  o.BrowserLanguage,
		BrowserUserAgent: o.BrowserUserAgent,
		RefundMessage:    o.RefundMessage,
		Authorization:    o.Authorization,
		IdempotencyKey:   o.IdempotencyKey,
	}
	if req.Authorization != "" {
		opts.Authorization = req.Authorization
	}
	return opts
}
