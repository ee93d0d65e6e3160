package reconcile

import (
	"context"
	"fmt"
	"log"
)

// MarkResult is the outcome of the conditioned mark-paid update.
type MarkResult int

const (
	// MarkPaid: the conditioned UPDATE affected one row
	MarkPaid MarkResult = iota
	// MarkAlreadyPaid: the row exists but is already paid (or cancelled);
	// zero rows affected, the delivery is a duplicate or stale
	MarkAlreadyPaid
	// MarkNotFound: no row with that id exists for the tenant
	MarkNotFound
)

// OrderStore is the order-table collaborator. MarkPaid must be a single
// atomic conditioned update scoped by tenant: concurrent redeliveries may
// race, at most one sees MarkPaid.
type OrderStore interface {
	MarkPaid(ctx context.Context, tenantID, orderID uint) (MarkResult, error)
	// FirstUnpaidByLinkFragment resolves the lowest-id unpaid, uncancelled
	// order whose payment_link contains fragment. ok=false when none match.
	FirstUnpaidByLinkFragment(ctx context.Context, tenantID uint, fragment string) (orderID uint, ok bool, err error)
}

// OrderReconciler applies an approved payment notification to the orders
// table exactly once.
type OrderReconciler struct {
	provider PaymentFetcher
	store    OrderStore
}

func NewOrderReconciler(provider PaymentFetcher, store OrderStore) *OrderReconciler {
	return &OrderReconciler{provider: provider, store: store}
}

// Reconcile runs the shared algorithm: event filter, authoritative
// re-fetch, status gate, resolution by external reference with a
// payment-link fallback, conditioned transition.
func (r *OrderReconciler) Reconcile(ctx context.Context, tenantID uint, accessToken string, n Notification) (Result, error) {
	if n.EventType != EventTypePayment {
		return Result{Outcome: OutcomeIgnored, Detail: "event is not a payment"}, nil
	}
	if n.PaymentID == "" {
		return Result{}, ErrMissingPaymentID
	}

	details, err := r.provider.GetPayment(ctx, accessToken, n.PaymentID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: fetch payment %s: %v", ErrProviderUnavailable, n.PaymentID, err)
	}

	if details.Status != StatusApproved {
		return Result{
			Outcome: OutcomeUnapproved,
			Detail:  fmt.Sprintf("payment %s status %s", n.PaymentID, details.Status),
		}, nil
	}

	// Primary path: external_reference is the order's own id
	if orderID, ok := OrderIDFromReference(details.ExternalReference); ok {
		res, err := r.store.MarkPaid(ctx, tenantID, orderID)
		if err != nil {
			return Result{}, fmt.Errorf("mark order %d paid: %w", orderID, err)
		}
		switch res {
		case MarkPaid:
			return Result{Outcome: OutcomeApplied, OrderID: orderID}, nil
		case MarkAlreadyPaid:
			return Result{Outcome: OutcomeDuplicate, OrderID: orderID, Detail: "order already paid"}, nil
		}
		// MarkNotFound falls through to the payment-link fallback
	}

	// Fallback: substring match of embedded fragments against payment_link
	candidates := append([]string{}, details.ReferenceCandidates...)
	candidates = append(candidates, ReferenceCandidates(details.ExternalReference)...)

	for _, fragment := range candidates {
		orderID, ok, err := r.store.FirstUnpaidByLinkFragment(ctx, tenantID, fragment)
		if err != nil {
			return Result{}, fmt.Errorf("payment link lookup %q: %w", fragment, err)
		}
		if !ok {
			continue
		}
		res, err := r.store.MarkPaid(ctx, tenantID, orderID)
		if err != nil {
			return Result{}, fmt.Errorf("mark order %d paid: %w", orderID, err)
		}
		if res == MarkPaid {
			log.Printf("[reconcile] payment %s resolved via payment_link fragment %q to order %d", n.PaymentID, fragment, orderID)
			return Result{Outcome: OutcomeApplied, OrderID: orderID, Detail: "resolved via payment link"}, nil
		}
		// Lost the race to a concurrent delivery of the same payment
		if res == MarkAlreadyPaid {
			return Result{Outcome: OutcomeDuplicate, OrderID: orderID, Detail: "order already paid"}, nil
		}
	}

	return Result{
		Outcome: OutcomeNotFound,
		Detail:  fmt.Sprintf("no unpaid order matches payment %s (reference %q)", n.PaymentID, details.ExternalReference),
	}, nil
}
