package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
	"github.com/orderzap/orderzap/internal/services"
)

// SyncErpOrderArgs defines the arguments for an ERP sync task
type SyncErpOrderArgs struct {
	TenantID     uint `json:"tenant_id"`
	OrderID      uint `json:"order_id"`
	AttemptCount int  `json:"attempt_count"`
}

// SyncErpOrderTaskDef pushes a paid order to the tenant's Bling account.
// Tenants without a Bling token just skip.
type SyncErpOrderTaskDef struct {
	bling *services.BlingService
}

// TaskID returns the unique identifier for this task
func (t *SyncErpOrderTaskDef) TaskID() string {
	return "sync_bling_order"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SyncErpOrderTaskDef) CreateTask(args SyncErpOrderArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution pushes the order reference to Bling
func (t *SyncErpOrderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args SyncErpOrderArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}

	var tenant models.Tenant
	if err := db.WithContext(ctx).First(&tenant, args.TenantID).Error; err != nil {
		return nil, fmt.Errorf("tenant %d: %w", args.TenantID, err)
	}
	if tenant.BlingAccessToken == "" {
		return map[string]interface{}{"status": "skipped", "reason": "no bling token"}, nil
	}

	var order models.Order
	if err := db.WithContext(ctx).Where("id = ? AND tenant_id = ?", args.OrderID, args.TenantID).First(&order).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", args.OrderID, err)
	}

	err := t.bling.SyncOrder(ctx, tenant.BlingAccessToken, services.SyncOrderRequest{
		ExternalID:    fmt.Sprintf("%d", order.ID),
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		Total:         order.TotalAmount,
	})
	if err != nil {
		if args.AttemptCount+1 < task.MaxAttempt {
			retryArgs := args
			retryArgs.AttemptCount++
			retry, buildErr := BuildScheduledTask(t.TaskID(), retryArgs, time.Now().Add(10*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if buildErr == nil {
				db.Create(retry)
				log.Printf("Bling sync for order %d failed, rescheduled attempt %d: %v", order.ID, retryArgs.AttemptCount+1, err)
			}
		}
		return nil, err
	}

	return map[string]interface{}{"status": "synced"}, nil
}

// SyncErpOrderTask is the singleton instance of SyncErpOrderTaskDef
var SyncErpOrderTask = &SyncErpOrderTaskDef{}
