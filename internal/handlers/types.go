package handlers

import (
	"context"
	"time"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/reconcile"
)

// TenantResolver resolves the merchant a webhook URL addresses.
type TenantResolver interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
}

// OrderReconciler applies a payment notification to a tenant's orders.
type OrderReconciler interface {
	Reconcile(ctx context.Context, tenantID uint, accessToken string, n reconcile.Notification) (reconcile.Result, error)
}

// SubscriptionReconciler applies a platform renewal payment to a tenant's
// subscription window.
type SubscriptionReconciler interface {
	Reconcile(ctx context.Context, n reconcile.Notification) (reconcile.Result, error)
}

// AuditLog records every inbound delivery and what was done with it.
type AuditLog interface {
	Append(ctx context.Context, entry models.WebhookLog)
}

// PaidEnqueuer schedules the fire-and-forget side effects of a paid order.
type PaidEnqueuer interface {
	EnqueueOrderPaid(ctx context.Context, tenantID, orderID uint)
}

// DedupMarker marks a delivery as seen. Purely informational: redeliveries
// are handled by the conditioned update, not by this marker.
type DedupMarker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}
