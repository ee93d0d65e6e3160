package models

import (
	"time"

	"gorm.io/gorm"
)

// Plan is a platform subscription plan sold to merchants. Days is the
// length of the window one approved renewal payment buys.
type Plan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Code  string  `gorm:"type:varchar(50);uniqueIndex" json:"code"`
	Name  string  `gorm:"type:varchar(255)" json:"name"`
	Days  int     `json:"days"`
	Price float64 `gorm:"type:decimal(15,2)" json:"price"`
}
