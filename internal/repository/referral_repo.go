package repository

import (
	"edupulse/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

func (r *ReferralRepository) CreateEarning(earning *models.ReferralEarning) error {
	return r.db.Create(earning).Error
}

func (r *ReferralRepository) ListByReferrer(referrerID uint) ([]models.ReferralEarning, error) {
	var earnings []models.ReferralEarning
	err := r.db.Preload("ReferredUser").
		Where("referrer_id = ?", referrerID).
		Order("created_at DESC").
		Find(&earnings).Error
	return earnings, err
}

func (r *ReferralRepository) TotalByReferrer(referrerID uint) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.Model(&models.ReferralEarning{}).
		Where("referrer_id = ?", referrerID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func (r *ReferralRepository) CountByReferrer(referrerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReferralEarning{}).Where("referrer_id = ?", referrerID).Count(&count).Error
	return count, err
}
