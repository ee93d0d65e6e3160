package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
)

// SubscriptionSweepTaskDef blocks tenants whose subscription window has
// lapsed. Recurring; the renewal webhook unblocks them again.
type SubscriptionSweepTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *SubscriptionSweepTaskDef) TaskID() string {
	return "subscription_sweep"
}

// CreateTask builds the recurring sweep. The RRULE keeps it daily.
func (t *SubscriptionSweepTaskDef) CreateTask() (*models.ScheduledTask, error) {
	interval := "FREQ=DAILY"
	return BuildScheduledTask(t.TaskID(), map[string]interface{}{}, time.Now(), &interval, models.ScheduledTaskTypeRecurring, 1)
}

// HandleExecution blocks every tenant past its subscription end
func (t *SubscriptionSweepTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	res := db.WithContext(ctx).Model(&models.Tenant{}).
		Where("is_blocked = ? AND subscription_ends_at IS NOT NULL AND subscription_ends_at < ?", false, time.Now()).
		Update("is_blocked", true)
	if res.Error != nil {
		return nil, res.Error
	}

	if res.RowsAffected > 0 {
		log.Printf("[subscription_sweep] blocked %d tenants with lapsed subscriptions", res.RowsAffected)
	}

	return map[string]interface{}{"blocked": res.RowsAffected}, nil
}

// SubscriptionSweepTask is the singleton instance of SubscriptionSweepTaskDef
var SubscriptionSweepTask = &SubscriptionSweepTaskDef{}
