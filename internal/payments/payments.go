// Package payments builds provider deep links for settling a debt outside
// the system. The engine only initiates: it hands a link to the caller and
// later records the result the provider reports back. Actual money
// movement happens entirely on the provider's side.
package payments

import (
	"net/url"

	"triptally/internal/errs"
	"triptally/internal/models"
)

// Result is the outcome a payment provider reports for an initiated
// payment. Reference ties it back to the settlement pair it was built for.
type Result struct {
	Reference string `json:"reference"`
	Success   bool   `json:"success"`
}

// Provider turns a settlement into a link the payer can open.
type Provider interface {
	PaymentLink(trip *models.Trip, s models.Settlement) (string, error)
}

// DeepLink builds provider app links from a configured base URL. The
// reference encodes trip and pair so the provider callback can be matched
// back to a settlement without server-side state.
type DeepLink struct {
	BaseURL string
}

// NewDeepLink creates a DeepLink provider. baseURL points at the external
// payment app's intent endpoint.
func NewDeepLink(baseURL string) *DeepLink {
	return &DeepLink{BaseURL: baseURL}
}

// PaymentLink builds the payment URL for one settlement transfer.
func (p *DeepLink) PaymentLink(trip *models.Trip, s models.Settlement) (string, error) {
	if p.BaseURL == "" {
		return "", errs.Statef("no payment provider is configured")
	}
	from := trip.Member(s.FromID)
	to := trip.Member(s.ToID)
	if from == nil || to == nil {
		return "", errs.Validationf("settlement references unknown members")
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", &errs.TransportError{Op: "build payment link", Err: err}
	}

	q := u.Query()
	q.Set("amount", s.Amount.StringFixed(2))
	q.Set("currency", trip.BaseCurrency)
	q.Set("payer", from.Name)
	q.Set("payee", to.Name)
	q.Set("note", "Trip: "+trip.Name)
	q.Set("reference", Reference(trip.ID, s.FromID, s.ToID))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Reference encodes a trip and settlement pair into the provider
// reference string. Pairs identify settlements; amounts do not, since the
// owed amount moves with every recompute.
func Reference(tripID, fromID, toID string) string {
	return tripID + ":" + fromID + ":" + toID
}
