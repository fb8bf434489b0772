package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ResponseKind names the vendor's answer as stored on the quote.
type ResponseKind string

const (
	ResponseAccept  ResponseKind = "accept"
	ResponseReject  ResponseKind = "reject"
	ResponseCounter ResponseKind = "counter"
)

// VendorResponse is one of Accept, Reject or Counter.
type VendorResponse interface {
	Kind() ResponseKind
	action() Action
	validate() error
}

// Accept closes the quote in the vendor's favour.
type Accept struct {
	Notes string
}

// Reject closes the quote. Reason is mandatory.
type Reject struct {
	Reason string
}

// Counter proposes a different amount. Amount must be positive.
type Counter struct {
	Amount decimal.Decimal
	Notes  string
}

func (Accept) Kind() ResponseKind  { return ResponseAccept }
func (Reject) Kind() ResponseKind  { return ResponseReject }
func (Counter) Kind() ResponseKind { return ResponseCounter }

func (Accept) action() Action  { return ActionAccept }
func (Reject) action() Action  { return ActionReject }
func (Counter) action() Action { return ActionCounter }

func (Accept) validate() error { return nil }

func (r Reject) validate() error {
	if strings.TrimSpace(r.Reason) == "" {
		return &ValidationError{Field: "reason", Message: "rejection reason is required"}
	}
	return nil
}

func (c Counter) validate() error {
	if !c.Amount.IsPositive() {
		return &ValidationError{Field: "counter_offer", Message: "counter offer must be greater than zero"}
	}
	return nil
}

// ValidateResponse checks the response's own fields without looking at any quote.
func ValidateResponse(r VendorResponse) error {
	return r.validate()
}
