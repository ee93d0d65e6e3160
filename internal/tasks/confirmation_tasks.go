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

// SendConfirmationArgs defines the arguments for a confirmation task
type SendConfirmationArgs struct {
	TenantID     uint `json:"tenant_id"`
	OrderID      uint `json:"order_id"`
	AttemptCount int  `json:"attempt_count"`
}

// SendConfirmationTaskDef sends the post-payment confirmation to the
// customer over the tenant's preferred channel. Failures re-enqueue the
// task with a bumped attempt counter; they never touch the order row.
type SendConfirmationTaskDef struct {
	whatsapp *services.WhatsappService
	email    *services.EmailService
}

// TaskID returns the unique identifier for this task
func (t *SendConfirmationTaskDef) TaskID() string {
	return "send_payment_confirmation"
}

// CreateTask builds a ScheduledTask record for this task
func (t *SendConfirmationTaskDef) CreateTask(args SendConfirmationArgs) (*models.ScheduledTask, error) {
	return BuildScheduledTask(t.TaskID(), args, time.Now(), nil, models.ScheduledTaskTypeOneTime, 3)
}

// HandleExecution delivers the confirmation message
func (t *SendConfirmationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var args SendConfirmationArgs
	if err := decodeArgs(task.Arguments, &args); err != nil {
		return nil, err
	}

	var tenant models.Tenant
	if err := db.WithContext(ctx).First(&tenant, args.TenantID).Error; err != nil {
		return nil, fmt.Errorf("tenant %d: %w", args.TenantID, err)
	}
	var order models.Order
	if err := db.WithContext(ctx).Where("id = ? AND tenant_id = ?", args.OrderID, args.TenantID).First(&order).Error; err != nil {
		return nil, fmt.Errorf("order %d: %w", args.OrderID, err)
	}

	var sendErr error
	switch tenant.NotifChannel {
	case models.NotificationChannelWhatsapp:
		sendErr = t.sendWhatsapp(tenant, order)
	case models.NotificationChannelEmail:
		sendErr = t.sendEmail(tenant, order)
	case models.NotificationChannelNone:
		log.Printf("Confirmation disabled for tenant %s, skipping order %d", tenant.Slug, order.ID)
		return map[string]interface{}{"status": "skipped"}, nil
	default:
		log.Printf("Unsupported confirmation channel %s for tenant %s", tenant.NotifChannel, tenant.Slug)
		return map[string]interface{}{"status": "skipped"}, nil
	}

	if sendErr != nil {
		if args.AttemptCount+1 < task.MaxAttempt {
			retryArgs := args
			retryArgs.AttemptCount++
			retry, err := BuildScheduledTask(t.TaskID(), retryArgs, time.Now().Add(5*time.Minute), nil, models.ScheduledTaskTypeOneTime, task.MaxAttempt)
			if err == nil {
				db.Create(retry)
				log.Printf("Confirmation for order %d failed, rescheduled attempt %d: %v", order.ID, retryArgs.AttemptCount+1, sendErr)
			} else {
				log.Printf("Failed to create retry task for order %d: %v", order.ID, err)
			}
		}
		return nil, sendErr
	}

	return map[string]interface{}{"status": "sent", "channel": string(tenant.NotifChannel)}, nil
}

func (t *SendConfirmationTaskDef) sendWhatsapp(tenant models.Tenant, order models.Order) error {
	chatId := order.CustomerPhone
	if chatId == "" {
		chatId = tenant.NotifWhatsappGroup
	}
	if chatId == "" {
		return fmt.Errorf("order %d has no customer phone and tenant has no group", order.ID)
	}
	return t.whatsapp.SendMessage(tenant.Slug, chatId, ConfirmationMessage(tenant, order))
}

func (t *SendConfirmationTaskDef) sendEmail(tenant models.Tenant, order models.Order) error {
	if tenant.Email == "" {
		return fmt.Errorf("tenant %s has no email configured", tenant.Slug)
	}
	subject := fmt.Sprintf("Pagamento confirmado - pedido #%d", order.ID)
	return t.email.SendEmail([]string{tenant.Email}, subject, ConfirmationMessage(tenant, order))
}

// ConfirmationMessage builds the customer-facing confirmation text
func ConfirmationMessage(tenant models.Tenant, order models.Order) string {
	name := order.CustomerName
	if name == "" {
		name = "cliente"
	}
	return fmt.Sprintf("Olá %s! Recebemos o pagamento do seu pedido #%d no valor de R$ %.2f. %s agradece a preferência!",
		name, order.ID, order.TotalAmount, tenant.Name)
}

// SendConfirmationTask is the singleton instance of SendConfirmationTaskDef
var SendConfirmationTask = &SendConfirmationTaskDef{}
