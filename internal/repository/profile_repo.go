package repository

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"edupulse/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepository) GetByUserID(userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByReferralCode(code string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("referral_code = ?", code).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(profile *models.Profile) error {
	return r.db.Save(profile).Error
}

// CreditApproved adds to the withdrawable balance and lifetime earnings.
func (r *ProfileRepository) CreditApproved(userID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"approved_balance": gorm.Expr("approved_balance + ?", amount),
		"total_earnings":   gorm.Expr("total_earnings + ?", amount),
	}).Error
}

// RefundApproved restores a previously debited amount. Unlike
// CreditApproved it does not count toward lifetime earnings.
func (r *ProfileRepository) RefundApproved(userID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("approved_balance", gorm.Expr("approved_balance + ?", amount)).Error
}

// CreditHeld adds to the held balance; moved to approved only after review.
func (r *ProfileRepository) CreditHeld(userID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("held_balance", gorm.Expr("held_balance + ?", amount)).Error
}

// ReleaseHeld moves amount from held to approved and counts it as earned.
func (r *ProfileRepository) ReleaseHeld(userID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
		"held_balance":     gorm.Expr("held_balance - ?", amount),
		"approved_balance": gorm.Expr("approved_balance + ?", amount),
		"total_earnings":   gorm.Expr("total_earnings + ?", amount),
	}).Error
}

// ForfeitHeld removes amount from the held balance without crediting it.
func (r *ProfileRepository) ForfeitHeld(userID uint, amount decimal.Decimal) error {
	return r.db.Model(&models.Profile{}).Where("user_id = ?", userID).
		Update("held_balance", gorm.Expr("held_balance - ?", amount)).Error
}

// DebitApproved subtracts amount iff the balance covers it; returns
// ErrInsufficientBalance otherwise. Conditional so concurrent withdrawals
// cannot overdraw.
var ErrInsufficientBalance = fmt.Errorf("insufficient balance")

func (r *ProfileRepository) DebitApproved(userID uint, amount decimal.Decimal) error {
	res := r.db.Model(&models.Profile{}).
		Where("user_id = ? AND approved_balance >= ?", userID, amount).
		Update("approved_balance", gorm.Expr("approved_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

// AverageQualityScore across all profiles; 0 when there are none.
func (r *ProfileRepository) AverageQualityScore() (float64, error) {
	var avg *float64
	err := r.db.Model(&models.Profile{}).Select("AVG(quality_score)").Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

const referralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateReferralCode produces an unused 8-char code, retrying on collision.
func (r *ProfileRepository) GenerateReferralCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code, err := randomCode(8)
		if err != nil {
			return "", err
		}
		var count int64
		if err := r.db.Model(&models.Profile{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate unique referral code")
}

func randomCode(n int) (string, error) {
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(referralCodeAlphabet))))
		if err != nil {
			return "", err
		}
		b[i] = referralCodeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
