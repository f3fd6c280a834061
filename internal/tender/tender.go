// Package tender holds the payment instruments a gateway operation can be
// charged against and turns them into the wire-level payment_details and
// fraud_details objects the remote service expects.
package tender

// Tender is the payment instrument presented for an operation.
// Exactly one of the concrete variants below is used per call.
type Tender interface {
	isTender()
}

// StoredCard carries the card data needed to charge or tokenize a card.
// Field formats are validated by the remote service, not here.
type StoredCard struct {
	Number            string
	Month             int
	Year              int
	VerificationValue string
	FirstName         string // sent as given_name
	LastName          string // sent as family_name
}

func (StoredCard) isTender() {}

// OfflinePayment describes a store-based payment (e.g. a konbini brand).
// Method is passed through uninterpreted; unknown keys are rejected remotely.
type OfflinePayment struct {
	Method string // e.g. "konbini"
	Store  string // e.g. "lawson"
	Email  string
	Phone  string
}

func (OfflinePayment) isTender() {}

// PaymentDetails is the payment_details object of a request body.
type PaymentDetails struct {
	Type              string `json:"type"`
	Number            string `json:"number,omitempty"`
	Month             int    `json:"month,omitempty"`
	Year              int    `json:"year,omitempty"`
	VerificationValue string `json:"verification_value,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Store             string `json:"store,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
}

// FraudDetails is the fraud_details object of a request body.
type FraudDetails struct {
	CustomerIP       string `json:"customer_ip,omitempty"`
	CustomerEmail    string `json:"customer_email,omitempty"`
	BrowserLanguage  string `json:"browser_language,omitempty"`
	BrowserUserAgent string `json:"browser_user_agent,omitempty"`
}

// CreditCardType is the payment_details type emitted for card tenders.
const CreditCardType = "credit_card"
