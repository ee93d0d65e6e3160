package reconcile

import (
	"context"
	"fmt"
)

// ExtendResult is the outcome of a guarded subscription extension.
type ExtendResult int

const (
	// ExtendApplied: ledger row inserted and window extended, one transaction
	ExtendApplied ExtendResult = iota
	// ExtendDuplicate: this payment id was already processed, nothing changed
	ExtendDuplicate
	// ExtendTenantNotFound: the reference names a tenant that does not exist
	ExtendTenantNotFound
)

// SubscriptionStore extends a tenant's subscription window. Extending a
// date is not idempotent under replay, so implementations must record the
// payment id in a dedup ledger inside the same transaction and report
// ExtendDuplicate on a ledger hit.
type SubscriptionStore interface {
	ExtendSubscription(ctx context.Context, paymentID string, ref SubscriptionReference) (ExtendResult, error)
}

// SubscriptionReconciler handles platform-level renewal payments. Same
// algorithm as the order variant; the target is the tenant's subscription
// window, resolved from the structured external reference, and replay
// protection comes from the processed-payment ledger instead of an
// unpaid-only filter.
type SubscriptionReconciler struct {
	provider PaymentFetcher
	store    SubscriptionStore
	// platform credential; renewal payments are collected by OrderZap
	// itself, not by a merchant
	accessToken string
}

func NewSubscriptionReconciler(provider PaymentFetcher, store SubscriptionStore, accessToken string) *SubscriptionReconciler {
	return &SubscriptionReconciler{provider: provider, store: store, accessToken: accessToken}
}

func (r *SubscriptionReconciler) Reconcile(ctx context.Context, n Notification) (Result, error) {
	if n.EventType != EventTypePayment {
		return Result{Outcome: OutcomeIgnored, Detail: "event is not a payment"}, nil
	}
	if n.PaymentID == "" {
		return Result{}, ErrMissingPaymentID
	}

	details, err := r.provider.GetPayment(ctx, r.accessToken, n.PaymentID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch payment %s: %v", ErrProviderUnavailable, n.PaymentID, err)
	}

	if details.Status != StatusApproved {
		return Result{
			Outcome: OutcomeUnapproved,
			Detail:  fmt.Sprintf("payment %s status %s", n.PaymentID, details.Status),
		}, nil
	}

	ref, err := ParseSubscriptionReference(details.ExternalReference)
	if err != nil {
		// Benign no-op: an unparseable reference is a stale or foreign
		// payment, retrying would not help
		return Result{Outcome: OutcomeNotFound, Detail: err.Error()}, nil
	}

	res, err := r.store.ExtendSubscription(ctx, n.PaymentID, ref)
	if err != nil {
		return Result{}, fmt.Errorf("extend subscription for tenant %d: %w", ref.TenantID, err)
	}

	switch res {
	case ExtendDuplicate:
		return Result{Outcome: OutcomeDuplicate, TenantID: ref.TenantID, Detail: "payment already processed"}, nil
	case ExtendTenantNotFound:
		return Result{Outcome: OutcomeNotFound, TenantID: ref.TenantID, Detail: "tenant not found"}, nil
	default:
		return Result{Outcome: OutcomeApplied, TenantID: ref.TenantID}, nil
	}
}
