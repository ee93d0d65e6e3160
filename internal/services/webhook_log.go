package services

import (
	"context"
	"encoding/json"
	"log"

	"gorm.io/gorm"

	"github.com/orderzap/orderzap/internal/models"
)

// WebhookLogService appends audit rows for received notifications. It is
// write-only and strictly best-effort: a failed append is logged and
// swallowed, it never changes the webhook response.
type WebhookLogService struct {
	db *gorm.DB
}

func NewWebhookLogService(db *gorm.DB) *WebhookLogService {
	return &WebhookLogService{db: db}
}

func (s *WebhookLogService) Append(ctx context.Context, entry models.WebhookLog) {
	if len(entry.Payload) == 0 {
		entry.Payload = json.RawMessage("{}")
	} else if !json.Valid(entry.Payload) {
		// Providers occasionally deliver junk bodies; keep them auditable
		raw, _ := json.Marshal(string(entry.Payload))
		entry.Payload = raw
	}

	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("[webhook_log] failed to append %s audit row (delivery %s): %v",
			entry.WebhookType, entry.DeliveryID, err)
	}
}
