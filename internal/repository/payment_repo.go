package repository

import (
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"

	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(record *models.PaymentRecord) error {
	return r.db.Create(record).Error
}

func (r *PaymentRepository) GetByMerchantReference(ref string) (*models.PaymentRecord, error) {
	var record models.PaymentRecord
	err := r.db.Where("merchant_reference = ?", ref).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *PaymentRepository) Update(record *models.PaymentRecord) error {
	return r.db.Save(record).Error
}

// SetAwaitingConfirmation stores the provider transaction id and moves the
// record out of pending.
func (r *PaymentRepository) SetAwaitingConfirmation(ref, transactionID string) error {
	return r.db.Model(&models.PaymentRecord{}).
		Where("merchant_reference = ?", ref).
		Updates(map[string]interface{}{
			"lipana_transaction_id": transactionID,
			"payment_status":        domain.PaymentAwaitingConfirmation,
		}).Error
}

// ClaimCompletion atomically marks the record completed iff it is not
// already completed. Returns true when this caller won the claim; false
// means another verifier got there first (or the record is gone). Runs
// against tx so a failed provisioning rolls the claim back.
func (r *PaymentRepository) ClaimCompletion(tx *gorm.DB, ref string) (bool, error) {
	now := time.Now()
	res := tx.Model(&models.PaymentRecord{}).
		Where("merchant_reference = ? AND payment_status <> ?", ref, domain.PaymentCompleted).
		Updates(map[string]interface{}{
			"payment_status":        domain.PaymentCompleted,
			"completed_at":          now,
			"pending_password_hash": "",
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkTerminalFailure records a failed or cancelled charge and scrubs the
// pending password hash. No-op if the record already completed.
func (r *PaymentRepository) MarkTerminalFailure(ref, status, reason string) error {
	return r.db.Model(&models.PaymentRecord{}).
		Where("merchant_reference = ? AND payment_status <> ?", ref, domain.PaymentCompleted).
		Updates(map[string]interface{}{
			"payment_status":        status,
			"fail_reason":           reason,
			"pending_password_hash": "",
		}).Error
}

func (r *PaymentRepository) List(status string, offset, limit int) ([]models.PaymentRecord, int64, error) {
	var records []models.PaymentRecord
	var total int64
	q := r.db.Model(&models.PaymentRecord{})
	if status != "" {
		q = q.Where("payment_status = ?", status)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&records).Error
	return records, total, err
}

func (r *PaymentRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.PaymentRecord{}).Where("payment_status = ?", status).Count(&count).Error
	return count, err
}
