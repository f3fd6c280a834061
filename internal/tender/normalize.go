package tender

import "fmt"

// Normalize builds the payment_details object for t.
// For offline payments the customer email from opts wins over the tender's
// contact email. No format validation is performed.
func Normalize(t Tender, opts Options) (PaymentDetails, error) {
	switch v := t.(type) {
	case StoredCard:
		return cardDetails(v), nil
	case *StoredCard:
		if v == nil {
			return PaymentDetails{}, fmt.Errorf("tender: nil card")
		}
		return cardDetails(*v), nil
	case OfflinePayment:
		return offlineDetails(v, opts), nil
	case *OfflinePayment:
		if v == nil {
			return PaymentDetails{}, fmt.Errorf("tender: nil offline payment")
		}
		return offlineDetails(*v, opts), nil
	default:
		return PaymentDetails{}, fmt.Errorf("tender: unsupported tender type %T", t)
	}
}

// FraudDetailsFrom returns the fraud_details object for opts, or nil when
// none of its fields are present.
func FraudDetailsFrom(opts Options) *FraudDetails {
	if !opts.HasFraudSignals() {
		return nil
	}
	return &FraudDetails{
		CustomerIP:       opts.CustomerIP,
		CustomerEmail:    opts.CustomerEmail,
		BrowserLanguage:  opts.BrowserLanguage,
		BrowserUserAgent: opts.BrowserUserAgent,
	}
}

// IsCard reports whether t is a card tender.
func IsCard(t Tender) bool {
	switch t.(type) {
	case StoredCard, *StoredCard:
		return true
	}
	return false
}

func cardDetails(c StoredCard) PaymentDetails {
	return PaymentDetails{
		Type:              CreditCardType,
		Number:            c.Number,
		Month:             c.Month,
		Year:              c.Year,
		VerificationValue: c.VerificationValue,
		GivenName:         c.FirstName,
		FamilyName:        c.LastName,
	}
}

func offlineDetails(p OfflinePayment, opts Options) PaymentDetails {
	email := p.Email
	if opts.CustomerEmail != "" {
		email = opts.CustomerEmail
	}
	return PaymentDetails{
		Type:  p.Method,
		Store: p.Store,
		Email: email,
		Phone: p.Phone,
	}
}
