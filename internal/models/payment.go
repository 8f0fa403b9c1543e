package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentRecord is one registration payment attempt, keyed by the
// merchant-generated reference. It embeds the pending registration payload
// so the verifier can provision the account without re-trusting the client
// after the charge confirms. The password is stored only as a bcrypt hash
// and the hash column is scrubbed on any terminal transition.
type PaymentRecord struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	MerchantReference    string          `gorm:"size:64;uniqueIndex;not null" json:"merchant_reference"`
	LipanaTransactionID  string          `gorm:"size:128;index" json:"lipana_transaction_id"`
	Status               string          `gorm:"column:payment_status;size:30;not null;index;default:'pending'" json:"payment_status"`
	Amount               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Email                string          `gorm:"size:255;not null;index" json:"email"`
	FullName             string          `gorm:"size:255;not null" json:"full_name"`
	PhoneNumber          string          `gorm:"size:20;not null" json:"phone_number"`
	PendingPasswordHash  string          `gorm:"size:255" json:"-"`
	ReferredBy           *uint           `gorm:"index" json:"referred_by"`
	FailReason           string          `gorm:"size:255" json:"fail_reason,omitempty"`
	CompletedAt          *time.Time      `json:"completed_at"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	DeletedAt            gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (PaymentRecord) TableName() string { return "payments" }

// IsTerminal reports whether the record can no longer change status.
func (p *PaymentRecord) IsTerminal() bool {
	switch p.Status {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}
