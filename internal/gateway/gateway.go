// Package gateway abstracts the two supported payment processors
// (Paystack and Flutterwave) behind a single Client interface. Field
// names and currency units differ per provider; everything is
// normalized here so the payment service never sees provider-specific
// shapes. Amounts cross this boundary in kobo (minor units).
package gateway

import (
	"context"
	"encoding/json"
	"time"
)

// Transaction outcome statuses after normalization. Pending is
// non-terminal: a verify that reports Pending leaves the local payment
// untouched.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusPending = "pending"
)

// InitRequest carries everything needed to open a hosted-payment
// session with the provider.
type InitRequest struct {
	Reference   string
	AmountKobo  int64
	Email       string
	CallbackURL string
	// Metadata travels with the transaction and comes back on
	// webhooks; keys are provider-agnostic.
	Metadata map[string]string
}

// InitResult is the normalized response to transaction initialization.
type InitResult struct {
	AuthorizationURL string
	Reference        string
	AccessCode       string // Paystack only; empty for Flutterwave
}

// VerifyResult is the normalized response to verify-by-reference.
type VerifyResult struct {
	Status     string // one of the Status* constants
	AmountKobo int64
	PaidAt     time.Time
	Raw        json.RawMessage
}

// Client is implemented once per provider. Implementations must
// normalize status strings and currency units before returning.
type Client interface {
	// InitializeTransaction opens a hosted-payment session and
	// returns the redirect URL for the payer.
	InitializeTransaction(ctx context.Context, req InitRequest) (*InitResult, error)
	// VerifyTransaction fetches the authoritative outcome for a
	// reference from the provider.
	VerifyTransaction(ctx context.Context, reference string) (*VerifyResult, error)
}

// Notice is a normalized webhook notification. Reference may be empty
// for malformed payloads; the payment service logs and drops those.
// Success is true only for event names that denote a completed charge;
// Failed only for events that report a terminal charge failure. Both
// false means the event carries no charge outcome (disputes, transfer
// updates) and must not change payment state.
type Notice struct {
	EventID    string
	Event      string
	Reference  string
	Success    bool
	Failed     bool
	AmountKobo int64
	PaidAt     time.Time
	Raw        json.RawMessage
}
