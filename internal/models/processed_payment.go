package models

import "time"

// ProcessedPayment is the dedup ledger for non-idempotent transitions.
// The unique index makes "insert the ledger row" the guard: a redelivered
// payment id violates it and the surrounding transaction rolls back.
type ProcessedPayment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Provider  PaymentGateway `gorm:"type:varchar(50);uniqueIndex:idx_processed_payments_provider_payment" json:"provider"`
	PaymentID string         `gorm:"type:varchar(100);uniqueIndex:idx_processed_payments_provider_payment" json:"payment_id"`
	TenantID  uint           `gorm:"index" json:"tenant_id"`
}
