package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/reconcile"
)

type fakeTenants struct {
	tenants map[string]*models.Tenant
}

func (f *fakeTenants) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	if t, ok := f.tenants[slug]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("tenant %q: %w", slug, gorm.ErrRecordNotFound)
}

type fakeOrderReconciler struct {
	result reconcile.Result
	err    error

	calls    int
	tenantID uint
	token    string
	n        reconcile.Notification
}

func (f *fakeOrderReconciler) Reconcile(ctx context.Context, tenantID uint, accessToken string, n reconcile.Notification) (reconcile.Result, error) {
	f.calls++
	f.tenantID = tenantID
	f.token = accessToken
	f.n = n
	return f.result, f.err
}

type fakeSubscriptionReconciler struct {
	result reconcile.Result
	err    error
	calls  int
}

func (f *fakeSubscriptionReconciler) Reconcile(ctx context.Context, n reconcile.Notification) (reconcile.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeAudit struct {
	entries []models.WebhookLog
}

func (f *fakeAudit) Append(ctx context.Context, entry models.WebhookLog) {
	f.entries = append(f.entries, entry)
}

type enqueueCall struct {
	tenantID uint
	orderID  uint
}

type fakeQueue struct {
	calls []enqueueCall
}

func (f *fakeQueue) EnqueueOrderPaid(ctx context.Context, tenantID, orderID uint) {
	f.calls = append(f.calls, enqueueCall{tenantID: tenantID, orderID: orderID})
}

func newTestHandler(mp, amx *fakeOrderReconciler, sub *fakeSubscriptionReconciler) (*WebhookHandler, *fakeAudit, *fakeQueue) {
	tenants := &fakeTenants{tenants: map[string]*models.Tenant{
		"acme": {
			ID:                     7,
			Slug:                   "acme",
			MercadoPagoAccessToken: "mp-token-acme",
			AppmaxAccessToken:      "amx-token-acme",
		},
	}}
	audit := &fakeAudit{}
	queue := &fakeQueue{}
	h := NewWebhookHandler(tenants, mp, amx, sub, audit, queue, nil)
	return h, audit, queue
}

func invoke(t *testing.T, handler echo.HandlerFunc, method, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	require.NoError(t, handler(c))
	return rec
}

func TestMercadoPagoOrderApplied(t *testing.T) {
	mp := &fakeOrderReconciler{result: reconcile.Result{Outcome: reconcile.OutcomeApplied, OrderID: 42}}
	h, audit, queue := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleMercadoPagoOrder, http.MethodPost,
		`{"type":"payment","data":{"id":"999"}}`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(7), mp.tenantID)
	assert.Equal(t, "mp-token-acme", mp.token)
	assert.Equal(t, "999", mp.n.PaymentID)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "applied", body["status"])
	assert.Equal(t, float64(42), body["order_id"])

	require.Len(t, queue.calls, 1)
	assert.Equal(t, enqueueCall{tenantID: 7, orderID: 42}, queue.calls[0])

	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.WebhookLogStatusSuccess, audit.entries[0].Status)
	assert.Equal(t, "mercadopago_order", audit.entries[0].WebhookType)
	assert.NotEmpty(t, audit.entries[0].DeliveryID)
}

func TestMercadoPagoOrderStatusCodes(t *testing.T) {
	cases := []struct {
		name     string
		result   reconcile.Result
		err      error
		wantCode int
	}{
		{"ignored event", reconcile.Result{Outcome: reconcile.OutcomeIgnored}, nil, http.StatusOK},
		{"unapproved", reconcile.Result{Outcome: reconcile.OutcomeUnapproved}, nil, http.StatusOK},
		{"duplicate", reconcile.Result{Outcome: reconcile.OutcomeDuplicate, OrderID: 42}, nil, http.StatusOK},
		{"order not found", reconcile.Result{Outcome: reconcile.OutcomeNotFound}, nil, http.StatusNotFound},
		{"missing payment id", reconcile.Result{}, reconcile.ErrMissingPaymentID, http.StatusBadRequest},
		{"provider down", reconcile.Result{}, fmt.Errorf("%w: boom", reconcile.ErrProviderUnavailable), http.StatusInternalServerError},
		{"store failure", reconcile.Result{}, errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mp := &fakeOrderReconciler{result: tc.result, err: tc.err}
			h, _, queue := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

			rec := invoke(t, h.HandleMercadoPagoOrder, http.MethodPost,
				`{"type":"payment","data":{"id":"999"}}`, map[string]string{"tenant": "acme"})

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Empty(t, queue.calls)
		})
	}
}

func TestMercadoPagoOrderUnknownTenant(t *testing.T) {
	mp := &fakeOrderReconciler{}
	h, audit, _ := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleMercadoPagoOrder, http.MethodPost,
		`{"type":"payment","data":{"id":"999"}}`, map[string]string{"tenant": "nobody"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, mp.calls)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.WebhookLogStatusError, audit.entries[0].Status)
}

func TestMercadoPagoOrderMalformedBody(t *testing.T) {
	mp := &fakeOrderReconciler{}
	h, _, _ := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleMercadoPagoOrder, http.MethodPost,
		`{not json`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, mp.calls)
}

func TestAppmaxSwallowsMalformedBody(t *testing.T) {
	amx := &fakeOrderReconciler{}
	h, audit, _ := newTestHandler(&fakeOrderReconciler{}, amx, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleAppmax, http.MethodPost,
		`{not json`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, amx.calls)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.WebhookLogStatusError, audit.entries[0].Status)
	assert.Equal(t, http.StatusOK, audit.entries[0].StatusCode)
}

func TestAppmaxSwallowsMissingPaymentID(t *testing.T) {
	amx := &fakeOrderReconciler{err: reconcile.ErrMissingPaymentID}
	h, _, _ := newTestHandler(&fakeOrderReconciler{}, amx, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleAppmax, http.MethodPost,
		`{"event":"OrderApproved","data":{}}`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAppmaxApplied(t *testing.T) {
	amx := &fakeOrderReconciler{result: reconcile.Result{Outcome: reconcile.OutcomeApplied, OrderID: 13}}
	h, _, queue := newTestHandler(&fakeOrderReconciler{}, amx, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleAppmax, http.MethodPost,
		`{"event":"OrderApproved","data":{"id":345}}`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "amx-token-acme", amx.token)
	require.Len(t, queue.calls, 1)
	assert.Equal(t, enqueueCall{tenantID: 7, orderID: 13}, queue.calls[0])
}

func TestAppmaxNotFoundIsAcknowledged(t *testing.T) {
	amx := &fakeOrderReconciler{result: reconcile.Result{Outcome: reconcile.OutcomeNotFound}}
	h, _, _ := newTestHandler(&fakeOrderReconciler{}, amx, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleAppmax, http.MethodPost,
		`{"event":"OrderApproved","data":{"id":345}}`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAppmaxSurfacesDownstreamFailure(t *testing.T) {
	amx := &fakeOrderReconciler{err: fmt.Errorf("%w: timeout", reconcile.ErrProviderUnavailable)}
	h, _, _ := newTestHandler(&fakeOrderReconciler{}, amx, &fakeSubscriptionReconciler{})

	rec := invoke(t, h.HandleAppmax, http.MethodPost,
		`{"event":"OrderApproved","data":{"id":345}}`, map[string]string{"tenant": "acme"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSubscriptionMissingPaymentID(t *testing.T) {
	sub := &fakeSubscriptionReconciler{err: reconcile.ErrMissingPaymentID}
	h, _, _ := newTestHandler(&fakeOrderReconciler{}, &fakeOrderReconciler{}, sub)

	rec := invoke(t, h.HandleMercadoPagoSubscription, http.MethodPost,
		`{"type":"payment","data":{}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscriptionAcknowledgesNonErrors(t *testing.T) {
	cases := []struct {
		name   string
		result reconcile.Result
	}{
		{"applied", reconcile.Result{Outcome: reconcile.OutcomeApplied, TenantID: 7}},
		{"replayed payment", reconcile.Result{Outcome: reconcile.OutcomeDuplicate, TenantID: 7}},
		{"unknown tenant", reconcile.Result{Outcome: reconcile.OutcomeNotFound}},
		{"unapproved", reconcile.Result{Outcome: reconcile.OutcomeUnapproved}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := &fakeSubscriptionReconciler{result: tc.result}
			h, _, queue := newTestHandler(&fakeOrderReconciler{}, &fakeOrderReconciler{}, sub)

			rec := invoke(t, h.HandleMercadoPagoSubscription, http.MethodPost,
				`{"type":"payment","data":{"id":"555"}}`, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, queue.calls, "renewals never touch the order side effects")
		})
	}
}

func TestReturnPageAppliesPayment(t *testing.T) {
	mp := &fakeOrderReconciler{result: reconcile.Result{Outcome: reconcile.OutcomeApplied, OrderID: 42}}
	h, _, queue := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?payment_id=999&external_reference=42&collection_status=approved", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenant")
	c.SetParamValues("acme")
	require.NoError(t, h.HandleMercadoPagoReturn(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "999", mp.n.PaymentID)
	assert.Equal(t, "42", mp.n.ExternalReference)
	assert.Equal(t, reconcile.EventTypePayment, mp.n.EventType)
	require.Len(t, queue.calls, 1)
}

func TestReturnPageMissingPaymentID(t *testing.T) {
	mp := &fakeOrderReconciler{err: reconcile.ErrMissingPaymentID}
	h, _, _ := newTestHandler(mp, &fakeOrderReconciler{}, &fakeSubscriptionReconciler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("tenant")
	c.SetParamValues("acme")
	require.NoError(t, h.HandleMercadoPagoReturn(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
