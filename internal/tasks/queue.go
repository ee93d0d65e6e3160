package tasks

import (
	"context"
	"log"

	"gorm.io/gorm"
)

// Queue enqueues the best-effort side effects of a paid order. Enqueue
// failures are logged and swallowed: the payment transition already
// happened and must not be re-failed by its side effects.
type Queue struct {
	db *gorm.DB
}

func NewQueue(db *gorm.DB) *Queue {
	return &Queue{db: db}
}

// EnqueueOrderPaid schedules the confirmation send and the ERP sync for a
// freshly paid order.
func (q *Queue) EnqueueOrderPaid(ctx context.Context, tenantID, orderID uint) {
	confirmation, err := SendConfirmationTask.CreateTask(SendConfirmationArgs{TenantID: tenantID, OrderID: orderID})
	if err == nil {
		err = q.db.WithContext(ctx).Create(confirmation).Error
	}
	if err != nil {
		log.Printf("[queue] failed to enqueue confirmation for order %d: %v", orderID, err)
	}

	sync, err := SyncErpOrderTask.CreateTask(SyncErpOrderArgs{TenantID: tenantID, OrderID: orderID})
	if err == nil {
		err = q.db.WithContext(ctx).Create(sync).Error
	}
	if err != nil {
		log.Printf("[queue] failed to enqueue bling sync for order %d: %v", orderID, err)
	}
}
