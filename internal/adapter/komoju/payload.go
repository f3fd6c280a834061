package komoju

import (
	"fmt"
	"net/url"

	"github.com/yourorg/komoju-gateway/internal/tender"
)

const (
	paymentsPath = "/payments"
	tokensPath   = "/tokens"
)

func capturePath(authorization string) string {
	return fmt.Sprintf("/payments/%s/capture", url.PathEscape(authorization))
}

func refundPath(authorization string) string {
	return fmt.Sprintf("/payments/%s/refund", url.PathEscape(authorization))
}

type metadata struct {
	OrderID string `json:"order_id,omitempty"`
}

// paymentRequest is the body for purchase and offline capture.
type paymentRequest struct {
	Amount         int64                 `json:"amount"`
	Currency       string                `json:"currency"`
	Tax            string                `json:"tax,omitempty"`
	Description    string                `json:"description,omitempty"`
	Metadata       *metadata             `json:"metadata,omitempty"`
	PaymentDetails tender.PaymentDetails `json:"payment_details"`
	FraudDetails   *tender.FraudDetails  `json:"fraud_details,omitempty"`
}

// captureRequest captures a prior card authorization by reference.
type captureRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// refundRequest omits amount for a void, which refunds the full captured amount.
type refundRequest struct {
	Amount        *int64 `json:"amount,omitempty"`
	RefundMessage string `json:"refund_message,omitempty"`
}

type storeRequest struct {
	PaymentDetails tender.PaymentDetails `json:"payment_details"`
}

// missingParameterError is reported as a missing_parameter failure without
// contacting the remote service.
type missingParameterError struct {
	name string
}

func (e *missingParameterError) Error() string {
	return fmt.Sprintf("A required parameter (%s) is missing", e.name)
}

func (a *KomojuAdapter) currencyFor(opts tender.Options) string {
	if opts.Currency != "" {
		return opts.Currency
	}
	return a.defaultCurrency
}

func (a *KomojuAdapter) buildPaymentRequest(amount int64, t tender.Tender, opts tender.Options) (paymentRequest, error) {
	details, err := tender.Normalize(t, opts)
	if err != nil {
		return paymentRequest{}, err
	}

	req := paymentRequest{
		Amount:         amount,
		Currency:       a.currencyFor(opts),
		Tax:            opts.Tax,
		Description:    opts.Description,
		PaymentDetails: details,
		FraudDetails:   tender.FraudDetailsFrom(opts),
	}
	if opts.OrderID != "" {
		req.Metadata = &metadata{OrderID: opts.OrderID}
	}
	return req, nil
}

func (a *KomojuAdapter) buildCaptureRequest(amount int64, opts tender.Options) captureRequest {
	return captureRequest{Amount: amount, Currency: a.currencyFor(opts)}
}

func buildRefundRequest(amount *int64, opts tender.Options) refundRequest {
	return refundRequest{Amount: amount, RefundMessage: opts.RefundMessage}
}

func buildStoreRequest(t tender.Tender, opts tender.Options) (storeRequest, error) {
	details, err := tender.Normalize(t, opts)
	if err != nil {
		return storeRequest{}, err
	}
	return storeRequest{PaymentDetails: details}, nil
}
