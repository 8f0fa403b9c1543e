package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralEarning is an append-only ledger entry: the bonus credited to a
// referrer when a user they invited completes registration payment (25% of
// the registration fee) or, later, when a referred user's survey response
// is approved.
type ReferralEarning struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	ReferrerID       uint            `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID   uint            `gorm:"not null;index" json:"referred_user_id"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	IsWithdrawable   bool            `gorm:"default:true" json:"is_withdrawable"`
	SurveyResponseID *uint           `gorm:"index" json:"survey_response_id"`
	CreatedAt        time.Time       `json:"created_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	Referrer     User `gorm:"foreignKey:ReferrerID" json:"-"`
	ReferredUser User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (ReferralEarning) TableName() string { return "referral_earnings" }
