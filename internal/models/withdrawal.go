package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Withdrawal struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	OrderID         string          `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod   string          `gorm:"size:30;default:'mpesa'" json:"payment_method"`
	PaymentDetails  string          `gorm:"type:text" json:"payment_details"` // JSON, e.g. {"phone_number":"+2547..."}
	Status          string          `gorm:"size:20;not null;index;default:'pending'" json:"status"` // pending, approved, rejected, held
	RejectionReason string          `gorm:"size:255" json:"rejection_reason,omitempty"`
	ProcessedBy     *uint           `json:"processed_by"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Withdrawal) TableName() string { return "withdrawals" }
