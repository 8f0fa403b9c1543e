package repository

import (
	"edupulse/internal/domain"
	"edupulse/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(w *models.Withdrawal) error {
	return r.db.Create(w).Error
}

func (r *WithdrawalRepository) GetByID(id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.Preload("User").First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WithdrawalRepository) Update(w *models.Withdrawal) error {
	return r.db.Save(w).Error
}

func (r *WithdrawalRepository) ListByUser(userID uint) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&withdrawals).Error
	return withdrawals, err
}

func (r *WithdrawalRepository) List(status string, offset, limit int) ([]models.Withdrawal, int64, error) {
	var withdrawals []models.Withdrawal
	var total int64
	q := r.db.Model(&models.Withdrawal{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	listQ := r.db.Preload("User")
	if status != "" {
		listQ = listQ.Where("status = ?", status)
	}
	err := listQ.Order("created_at DESC").Offset(offset).Limit(limit).Find(&withdrawals).Error
	return withdrawals, total, err
}

// PendingStats returns the count and total amount of pending withdrawals.
func (r *WithdrawalRepository) PendingStats() (int64, decimal.Decimal, error) {
	var count int64
	if err := r.db.Model(&models.Withdrawal{}).Where("status = ?", domain.WithdrawalPending).Count(&count).Error; err != nil {
		return 0, decimal.Zero, err
	}
	var total decimal.NullDecimal
	err := r.db.Model(&models.Withdrawal{}).
		Where("status = ?", domain.WithdrawalPending).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, decimal.Zero, err
	}
	if !total.Valid {
		return count, decimal.Zero, nil
	}
	return count, total.Decimal, nil
}

// HasAny reports whether the user ever requested a withdrawal; the first
// request carries a higher minimum amount.
func (r *WithdrawalRepository) HasAny(userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Withdrawal{}).Where("user_id = ?", userID).Count(&count).Error
	return count > 0, err
}
