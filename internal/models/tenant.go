package models

import (
	"time"

	"gorm.io/gorm"
)

// PlanType identifies the subscription plan a tenant is on
type PlanType string

const (
	PlanTypeTrial   PlanType = "trial"
	PlanTypeBasic   PlanType = "basic"
	PlanTypePro     PlanType = "pro"
	PlanTypeManaged PlanType = "managed"
)

type NotificationChannel string

const (
	NotificationChannelWhatsapp NotificationChannel = "whatsapp"
	NotificationChannelEmail    NotificationChannel = "email"
	NotificationChannelNone     NotificationChannel = "none"
)

// Tenant represents a merchant account. All order lookups and provider
// credentials are scoped by tenant.
type Tenant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Slug  string `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	Name  string `gorm:"type:varchar(255)" json:"name"`
	Phone string `gorm:"type:varchar(50)" json:"phone"`
	Email string `gorm:"type:varchar(255)" json:"email"`

	// Provider credentials, one set per tenant
	MercadoPagoAccessToken string `gorm:"type:text" json:"-"`
	AppmaxAccessToken      string `gorm:"type:text" json:"-"`
	BlingAccessToken       string `gorm:"type:text" json:"-"`

	// Subscription window managed by the platform-level renewal webhook
	PlanType           PlanType   `gorm:"type:varchar(20);default:'trial'" json:"plan_type"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at"`
	IsBlocked          bool       `gorm:"default:false" json:"is_blocked"`

	// Payment confirmation delivery preference
	NotifChannel       NotificationChannel `gorm:"type:varchar(20);default:'whatsapp'" json:"notif_channel"`
	NotifWhatsappGroup string              `gorm:"type:varchar(100)" json:"notif_whatsapp_group"`

	// Relationships
	Orders []Order `gorm:"foreignKey:TenantID" json:"orders,omitempty"`
}
