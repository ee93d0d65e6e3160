package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriptionStore mirrors the ledger guard: one extension per
// payment id, ever.
type fakeSubscriptionStore struct {
	tenants    map[uint]int // tenant id -> total days extended
	processed  map[string]bool
	extendErr  error
	extensions int
}

func newFakeSubscriptionStore(tenantIDs ...uint) *fakeSubscriptionStore {
	s := &fakeSubscriptionStore{tenants: make(map[uint]int), processed: make(map[string]bool)}
	for _, id := range tenantIDs {
		s.tenants[id] = 0
	}
	return s
}

func (s *fakeSubscriptionStore) ExtendSubscription(_ context.Context, paymentID string, ref SubscriptionReference) (ExtendResult, error) {
	if s.extendErr != nil {
		return 0, s.extendErr
	}
	if s.processed[paymentID] {
		return ExtendDuplicate, nil
	}
	if _, ok := s.tenants[ref.TenantID]; !ok {
		return ExtendTenantNotFound, nil
	}
	s.processed[paymentID] = true
	s.tenants[ref.TenantID] += ref.Days
	s.extensions++
	return ExtendApplied, nil
}

func subscriptionProvider(paymentID, ref string) *fakePayments {
	return &fakePayments{payments: map[string]*PaymentDetails{
		paymentID: {Status: StatusApproved, ExternalReference: ref},
	}}
}

func TestSubscriptionReconcileExtendsWindow(t *testing.T) {
	store := newFakeSubscriptionStore(7)
	r := NewSubscriptionReconciler(subscriptionProvider("900", "subscription:7;plan:2;days:30"), store, "platform-token")

	res, err := r.Reconcile(context.Background(), paymentNotification("900"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, uint(7), res.TenantID)
	assert.Equal(t, 30, store.tenants[7])
}

func TestSubscriptionReconcileReplayExtendsOnce(t *testing.T) {
	store := newFakeSubscriptionStore(7)
	r := NewSubscriptionReconciler(subscriptionProvider("900", "subscription:7;days:30"), store, "platform-token")

	for i := 0; i < 3; i++ {
		res, err := r.Reconcile(context.Background(), paymentNotification("900"))
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, OutcomeApplied, res.Outcome)
		} else {
			assert.Equal(t, OutcomeDuplicate, res.Outcome)
		}
	}
	assert.Equal(t, 1, store.extensions, "replayed delivery must not extend the window again")
	assert.Equal(t, 30, store.tenants[7])
}

func TestSubscriptionReconcileUnparseableReferenceIsNoop(t *testing.T) {
	store := newFakeSubscriptionStore(7)
	r := NewSubscriptionReconciler(subscriptionProvider("900", "some unrelated payment"), store, "platform-token")

	res, err := r.Reconcile(context.Background(), paymentNotification("900"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Zero(t, store.extensions)
}

func TestSubscriptionReconcileUnknownTenant(t *testing.T) {
	store := newFakeSubscriptionStore() // no tenants
	r := NewSubscriptionReconciler(subscriptionProvider("900", "subscription:9;days:30"), store, "platform-token")

	res, err := r.Reconcile(context.Background(), paymentNotification("900"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, uint(9), res.TenantID)
}

func TestSubscriptionReconcileStatusGate(t *testing.T) {
	store := newFakeSubscriptionStore(7)
	provider := &fakePayments{payments: map[string]*PaymentDetails{
		"900": {Status: StatusPending, ExternalReference: "subscription:7;days:30"},
	}}
	r := NewSubscriptionReconciler(provider, store, "platform-token")

	res, err := r.Reconcile(context.Background(), paymentNotification("900"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnapproved, res.Outcome)
	assert.Zero(t, store.extensions)
}

func TestSubscriptionReconcileStoreFailureSurfaces(t *testing.T) {
	store := newFakeSubscriptionStore(7)
	store.extendErr = fmt.Errorf("connection reset")
	r := NewSubscriptionReconciler(subscriptionProvider("900", "subscription:7;days:30"), store, "platform-token")

	_, err := r.Reconcile(context.Background(), paymentNotification("900"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrProviderUnavailable))
}
