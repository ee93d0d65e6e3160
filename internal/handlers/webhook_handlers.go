package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/providers/appmax"
	"github.com/orderzap/orderzap/internal/providers/mercadopago"
	"github.com/orderzap/orderzap/internal/reconcile"
)

// dedupTTL bounds how long a delivery id stays marked as seen in Redis.
// The marker only annotates logs; correctness comes from the database.
const dedupTTL = 24 * time.Hour

// WebhookHandler handles inbound payment gateway callbacks
type WebhookHandler struct {
	tenants       TenantResolver
	mercadoPago   OrderReconciler
	appmax        OrderReconciler
	subscriptions SubscriptionReconciler
	audit         AuditLog
	queue         PaidEnqueuer
	dedup         DedupMarker
}

// NewWebhookHandler creates a new WebhookHandler. dedup may be nil when
// Redis is not configured.
func NewWebhookHandler(
	tenants TenantResolver,
	mercadoPago OrderReconciler,
	appmaxRec OrderReconciler,
	subscriptions SubscriptionReconciler,
	audit AuditLog,
	queue PaidEnqueuer,
	dedup DedupMarker,
) *WebhookHandler {
	return &WebhookHandler{
		tenants:       tenants,
		mercadoPago:   mercadoPago,
		appmax:        appmaxRec,
		subscriptions: subscriptions,
		audit:         audit,
		queue:         queue,
		dedup:         dedup,
	}
}

// HandleMercadoPagoOrder processes Mercado Pago order payment webhooks.
// POST /webhooks/mercadopago/:tenant
func (h *WebhookHandler) HandleMercadoPagoOrder(c echo.Context) error {
	ctx := c.Request().Context()
	body, _ := io.ReadAll(c.Request().Body)
	deliveryID := uuid.NewString()

	tenant, err := h.tenants.FindBySlug(ctx, c.Param("tenant"))
	if err != nil {
		return h.fail(c, "mercadopago_order", deliveryID, 0, body, tenantLookupStatus(err), err)
	}

	n, err := mercadopago.ParseWebhook(body)
	if err != nil {
		return h.fail(c, "mercadopago_order", deliveryID, tenant.ID, body, http.StatusBadRequest, err)
	}
	h.markSeen(ctx, "mercadopago", n.PaymentID, deliveryID)

	result, err := h.mercadoPago.Reconcile(ctx, tenant.ID, tenant.MercadoPagoAccessToken, n)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, reconcile.ErrMissingPaymentID) {
			code = http.StatusBadRequest
		}
		return h.fail(c, "mercadopago_order", deliveryID, tenant.ID, body, code, err)
	}

	code := http.StatusOK
	if result.Outcome == reconcile.OutcomeNotFound {
		code = http.StatusNotFound
	}
	if result.Outcome == reconcile.OutcomeApplied {
		h.queue.EnqueueOrderPaid(ctx, tenant.ID, result.OrderID)
	}
	return h.respond(c, "mercadopago_order", deliveryID, tenant.ID, body, code, result)
}

// HandleMercadoPagoSubscription processes platform subscription renewal
// webhooks. The tenant is named inside the payment's external reference,
// not in the URL.
// POST /webhooks/mercadopago/subscription
func (h *WebhookHandler) HandleMercadoPagoSubscription(c echo.Context) error {
	ctx := c.Request().Context()
	body, _ := io.ReadAll(c.Request().Body)
	deliveryID := uuid.NewString()

	n, err := mercadopago.ParseWebhook(body)
	if err != nil {
		return h.fail(c, "mercadopago_subscription", deliveryID, 0, body, http.StatusBadRequest, err)
	}
	h.markSeen(ctx, "mercadopago", n.PaymentID, deliveryID)

	result, err := h.subscriptions.Reconcile(ctx, n)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, reconcile.ErrMissingPaymentID) {
			code = http.StatusBadRequest
		}
		return h.fail(c, "mercadopago_subscription", deliveryID, 0, body, code, err)
	}

	// Renewal deliveries are always acknowledged: an unknown tenant or an
	// unparseable reference is Mercado Pago's retry queue's problem only
	// when we genuinely failed, and we did not.
	return h.respond(c, "mercadopago_subscription", deliveryID, result.TenantID, body, http.StatusOK, result)
}

// HandleAppmax processes AppMax order webhooks. AppMax keeps redelivering
// on any non-2xx, including for payloads it will never fix, so malformed
// or unresolvable deliveries are acknowledged and only genuine downstream
// failures surface as 5xx.
// POST /webhooks/appmax/:tenant
func (h *WebhookHandler) HandleAppmax(c echo.Context) error {
	ctx := c.Request().Context()
	body, _ := io.ReadAll(c.Request().Body)
	deliveryID := uuid.NewString()

	tenant, err := h.tenants.FindBySlug(ctx, c.Param("tenant"))
	if err != nil {
		return h.fail(c, "appmax_order", deliveryID, 0, body, tenantLookupStatus(err), err)
	}

	n, err := appmax.ParseWebhook(body)
	if err != nil {
		h.log(ctx, "appmax_order", deliveryID, tenant.ID, http.StatusOK, models.WebhookLogStatusError, body, "swallowed malformed payload", err)
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}
	h.markSeen(ctx, "appmax", n.PaymentID, deliveryID)

	result, err := h.appmax.Reconcile(ctx, tenant.ID, tenant.AppmaxAccessToken, n)
	if err != nil {
		if errors.Is(err, reconcile.ErrMissingPaymentID) {
			h.log(ctx, "appmax_order", deliveryID, tenant.ID, http.StatusOK, models.WebhookLogStatusError, body, "swallowed delivery without payment id", err)
			return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
		}
		return h.fail(c, "appmax_order", deliveryID, tenant.ID, body, http.StatusInternalServerError, err)
	}

	if result.Outcome == reconcile.OutcomeApplied {
		h.queue.EnqueueOrderPaid(ctx, tenant.ID, result.OrderID)
	}
	return h.respond(c, "appmax_order", deliveryID, tenant.ID, body, http.StatusOK, result)
}

// HandleMercadoPagoReturn is the browser return-page fallback. Mercado Pago
// appends payment details to the buyer's redirect URL, which lets the
// reconciliation run even when the webhook delivery is delayed or lost.
// GET /payments/mercadopago/return/:tenant
func (h *WebhookHandler) HandleMercadoPagoReturn(c echo.Context) error {
	ctx := c.Request().Context()
	deliveryID := uuid.NewString()

	tenant, err := h.tenants.FindBySlug(ctx, c.Param("tenant"))
	if err != nil {
		return h.fail(c, "mercadopago_return", deliveryID, 0, nil, tenantLookupStatus(err), err)
	}

	paymentID := c.QueryParam("payment_id")
	if paymentID == "" {
		paymentID = c.QueryParam("collection_id")
	}
	n := reconcile.Notification{
		EventType:         reconcile.EventTypePayment,
		PaymentID:         paymentID,
		ExternalReference: c.QueryParam("external_reference"),
	}
	payload, _ := json.Marshal(map[string]string{
		"payment_id":         paymentID,
		"external_reference": n.ExternalReference,
		"collection_status":  c.QueryParam("collection_status"),
	})

	result, err := h.mercadoPago.Reconcile(ctx, tenant.ID, tenant.MercadoPagoAccessToken, n)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, reconcile.ErrMissingPaymentID) {
			code = http.StatusBadRequest
		}
		return h.fail(c, "mercadopago_return", deliveryID, tenant.ID, payload, code, err)
	}

	if result.Outcome == reconcile.OutcomeApplied {
		h.queue.EnqueueOrderPaid(ctx, tenant.ID, result.OrderID)
	}
	return h.respond(c, "mercadopago_return", deliveryID, tenant.ID, payload, http.StatusOK, result)
}

func (h *WebhookHandler) respond(c echo.Context, webhookType, deliveryID string, tenantID uint, payload []byte, code int, result reconcile.Result) error {
	status := models.WebhookLogStatusNoop
	if result.Outcome == reconcile.OutcomeApplied {
		status = models.WebhookLogStatusSuccess
	}
	h.log(c.Request().Context(), webhookType, deliveryID, tenantID, code, status, payload, result.Detail, nil)

	resp := map[string]interface{}{"status": string(result.Outcome)}
	if result.OrderID != 0 {
		resp["order_id"] = result.OrderID
	}
	return c.JSON(code, resp)
}

func (h *WebhookHandler) fail(c echo.Context, webhookType, deliveryID string, tenantID uint, payload []byte, code int, err error) error {
	h.log(c.Request().Context(), webhookType, deliveryID, tenantID, code, models.WebhookLogStatusError, payload, "", err)
	return c.JSON(code, map[string]string{"error": publicError(code)})
}

func (h *WebhookHandler) log(ctx context.Context, webhookType, deliveryID string, tenantID uint, code int, status models.WebhookLogStatus, payload []byte, response string, err error) {
	entry := models.WebhookLog{
		DeliveryID:  deliveryID,
		WebhookType: webhookType,
		TenantID:    tenantID,
		StatusCode:  code,
		Status:      status,
		Payload:     payload,
		Response:    response,
	}
	if err != nil {
		entry.ErrorMessage = err.Error()
	}
	h.audit.Append(ctx, entry)
}

// markSeen flags a payment id in Redis so operators can spot redeliveries
// in the logs. Failures are ignored.
func (h *WebhookHandler) markSeen(ctx context.Context, provider, paymentID, deliveryID string) {
	if h.dedup == nil || paymentID == "" {
		return
	}
	first, err := h.dedup.SetNX(ctx, fmt.Sprintf("webhook:seen:%s:%s", provider, paymentID), deliveryID, dedupTTL)
	if err == nil && !first {
		log.Printf("[webhook] redelivery of %s payment %s", provider, paymentID)
	}
}

func tenantLookupStatus(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func publicError(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "invalid notification"
	case http.StatusNotFound:
		return "not found"
	default:
		return "processing failed"
	}
}
