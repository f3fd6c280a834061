package tender

// Options are the per-call settings recognized by the gateway operations.
// Empty fields are omitted from the request body.
type Options struct {
	OrderID     string // sent as metadata.order_id
	Description string
	Tax         string // passed through verbatim
	Currency    string // falls back to the gateway's default currency

	CustomerIP       string
	CustomerEmail    string
	BrowserLanguage  string
	BrowserUserAgent string

	RefundMessage string // refund and void only

	// Authorization references a prior payment for capture.
	Authorization string
	// IdempotencyKey is sent as a header; a fresh key is generated when empty.
	IdempotencyKey string
}

// HasFraudSignals reports whether any fraud_details field is set.
func (o Options) HasFraudSignals() bool {
	return o.CustomerIP != "" || o.CustomerEmail != "" || o.BrowserLanguage != "" || o.BrowserUserAgent != ""
}
