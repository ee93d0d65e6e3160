package models

import (
	"encoding/json"
	"time"
)

// WebhookLogStatus classifies what the reconciler did with a notification
type WebhookLogStatus string

const (
	WebhookLogStatusNoop    WebhookLogStatus = "noop"
	WebhookLogStatusSuccess WebhookLogStatus = "success"
	WebhookLogStatusError   WebhookLogStatus = "error"
)

// WebhookLog is a write-only audit row, one per received notification.
// The reconciler never reads it back.
type WebhookLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	DeliveryID   string           `gorm:"type:varchar(64);index" json:"delivery_id"`
	WebhookType  string           `gorm:"type:varchar(50);index" json:"webhook_type"`
	TenantID     uint             `gorm:"index" json:"tenant_id"`
	StatusCode   int              `json:"status_code"`
	Status       WebhookLogStatus `gorm:"type:varchar(20)" json:"status"`
	Payload      json.RawMessage  `gorm:"type:jsonb" json:"payload"`
	Response     string           `gorm:"type:text" json:"response"`
	ErrorMessage string           `gorm:"type:text" json:"error_message"`
}
