package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile holds a user's wallet balances and quality standing. Created
// exactly once, when the user's registration payment completes.
type Profile struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"uniqueIndex;not null" json:"user_id"`
	ApprovedBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"approved_balance"`
	HeldBalance      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"held_balance"`
	TotalEarnings    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_earnings"`
	CompletedSurveys int             `gorm:"not null;default:0" json:"completed_surveys"`
	QualityScore     int             `gorm:"not null;default:100" json:"quality_score"`
	QualityStatus    string          `gorm:"size:20;not null;default:'good'" json:"quality_status"` // good | caution | restricted
	IsRestricted     bool            `gorm:"default:false" json:"is_restricted"`
	HasWithdrawn     bool            `gorm:"default:false" json:"has_withdrawn"`
	ReferralCode     string          `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredBy       *uint           `gorm:"index" json:"referred_by"` // referrer's user id; lookup only
	ContactNumber    string          `gorm:"size:20" json:"contact_number"`
	AvatarURL        string          `gorm:"size:512" json:"avatar_url"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (Profile) TableName() string { return "profiles" }
