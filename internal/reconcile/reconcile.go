// Package reconcile turns asynchronous, at-least-once payment notifications
// into at-most-one state transition on the matching local record. Provider
// webhook bodies are normalized into a Notification before they get here;
// the incoming body is never trusted for financial state, the payment is
// always re-fetched from the provider by id first.
package reconcile

import (
	"context"
	"errors"
)

// EventType is the normalized notification event class
type EventType string

const (
	EventTypePayment       EventType = "payment"
	EventTypeMerchantOrder EventType = "merchant_order"
	EventTypeOther         EventType = "other"
)

// PaymentStatus is the normalized authoritative payment status
type PaymentStatus string

const (
	StatusApproved PaymentStatus = "approved"
	StatusPending  PaymentStatus = "pending"
	StatusRejected PaymentStatus = "rejected"
	StatusUnknown  PaymentStatus = "unknown"
)

// Notification is the canonical record every provider webhook body is
// normalized into before reconciliation runs.
type Notification struct {
	EventType         EventType `json:"event_type"`
	PaymentID         string    `json:"payment_id"`
	ExternalReference string    `json:"external_reference"`
}

// PaymentDetails is the authoritative payment state re-fetched from the
// provider. ReferenceCandidates carries provider-specific embedded
// fragments (preference id, QR payload token) for the payment-link
// fallback lookup.
type PaymentDetails struct {
	Status              PaymentStatus
	ExternalReference   string
	ReferenceCandidates []string
	Amount              float64
}

// PaymentFetcher re-fetches a payment from the provider API by id,
// authenticated with the given tenant-scoped access token.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, accessToken, paymentID string) (*PaymentDetails, error)
}

// Outcome classifies what reconciliation did. Handlers map outcomes to the
// per-variant HTTP conventions; the reconcilers themselves are HTTP-free.
type Outcome string

const (
	// OutcomeIgnored: not a payment event, acknowledged without action
	OutcomeIgnored Outcome = "ignored"
	// OutcomeUnapproved: authoritative status is not approved, no mutation
	OutcomeUnapproved Outcome = "unapproved"
	// OutcomeApplied: the transition happened, exactly this once
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate: the target was already transitioned by an earlier
	// delivery of this payment
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeNotFound: no local record matched any lookup strategy
	OutcomeNotFound Outcome = "not_found"
)

// Result is what a reconciler returns on the non-error path.
type Result struct {
	Outcome Outcome
	// OrderID is set when an order was resolved (OutcomeApplied or
	// OutcomeDuplicate on the order variant)
	OrderID uint
	// TenantID is set by the subscription variant after reference parsing
	TenantID uint
	// Detail is a short human-readable note for the audit log
	Detail string
}

// ErrMissingPaymentID: the notification carried no extractable payment id.
// Handlers decide per variant whether that is a 400 or a swallowed 200.
var ErrMissingPaymentID = errors.New("notification has no payment id")

// ErrProviderUnavailable: the authoritative re-fetch failed. Handlers
// answer with a 5xx so the provider redelivers.
var ErrProviderUnavailable = errors.New("provider unavailable")
