package models

import (
	"time"

	"gorm.io/gorm"
)

type PaymentGateway string

const (
	PaymentGatewayMercadoPago PaymentGateway = "mercadopago"
	PaymentGatewayAppmax      PaymentGateway = "appmax"
	PaymentGatewayManual      PaymentGateway = "manual"
)

// SalesChannel is where the order was taken
type SalesChannel string

const (
	SalesChannelWhatsapp  SalesChannel = "whatsapp"
	SalesChannelInstagram SalesChannel = "instagram"
	SalesChannelDirect    SalesChannel = "direct"
)

// Order is the reconciliation target. It is created unpaid by the checkout
// flow and flipped to paid exactly once by the webhook reconciler.
type Order struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	TenantID uint `gorm:"index" json:"tenant_id"`

	CustomerName  string  `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerPhone string  `gorm:"type:varchar(50)" json:"customer_phone"`
	TotalAmount   float64 `gorm:"type:decimal(15,2)" json:"total_amount"`

	PaymentGateway PaymentGateway `gorm:"type:varchar(50)" json:"payment_gateway"`
	Channel        SalesChannel   `gorm:"type:varchar(20);default:'whatsapp'" json:"channel"`

	// Checkout URL; embeds the provider preference id, used as the
	// fallback lookup key when external_reference is not numeric
	PaymentLink string `gorm:"type:text" json:"payment_link"`

	IsPaid      bool       `gorm:"default:false;index" json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at"`
	IsCancelled bool       `gorm:"default:false" json:"is_cancelled"`

	// Relationships
	Tenant Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}
