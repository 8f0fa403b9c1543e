package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrAlreadyProvisioned means another verifier already claimed this record.
var ErrAlreadyProvisioned = errors.New("payment already provisioned")

// AccountProvisioner creates the user, profile and referral bonus for a
// confirmed payment. The completion claim and every write happen in one
// transaction: if anything fails, the claim rolls back and the record
// stays retryable.
type AccountProvisioner struct {
	db    *gorm.DB
	audit *repository.AuditRepository
}

func NewAccountProvisioner(db *gorm.DB) *AccountProvisioner {
	return &AccountProvisioner{db: db, audit: repository.NewAuditRepository(db)}
}

func (p *AccountProvisioner) Provision(record *models.PaymentRecord) (*models.User, error) {
	var user *models.User

	err := p.db.Transaction(func(tx *gorm.DB) error {
		payments := repository.NewPaymentRepository(tx)
		claimed, err := payments.ClaimCompletion(tx, record.MerchantReference)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrAlreadyProvisioned
		}

		user = &models.User{
			Email:        record.Email,
			FullName:     record.FullName,
			PasswordHash: record.PendingPasswordHash,
			Role:         domain.RoleUser,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		profiles := repository.NewProfileRepository(tx)
		code, err := profiles.GenerateReferralCode()
		if err != nil {
			return err
		}
		profile := newProfileForRecord(record, user.ID, code)
		if err := tx.Create(profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		user.Profile = profile

		if record.ReferredBy != nil {
			if err := p.creditReferrer(tx, *record.ReferredBy, user, record); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, ErrAlreadyProvisioned) {
			p.recordFailure(record, err)
		}
		return nil, err
	}
	return user, nil
}

// newProfileForRecord builds the initial profile for a freshly paid
// registration. The wallet opens credited with the fee the user just paid:
// approved_balance and total_earnings both start at record.Amount.
func newProfileForRecord(record *models.PaymentRecord, userID uint, referralCode string) *models.Profile {
	return &models.Profile{
		UserID:          userID,
		ApprovedBalance: record.Amount,
		TotalEarnings:   record.Amount,
		QualityScore:    domain.QualityScoreStart,
		QualityStatus:   domain.QualityGood,
		ReferralCode:    referralCode,
		ReferredBy:      record.ReferredBy,
		ContactNumber:   record.PhoneNumber,
	}
}

// referralBonusFor is the referrer's cut of a completed registration fee.
// Both this and the new user's opening balance derive from the amount
// actually charged, so the ledger always sums against money that moved.
func referralBonusFor(amount decimal.Decimal) decimal.Decimal {
	return domain.ReferralBonusRate.Mul(amount).Round(2)
}

func (p *AccountProvisioner) creditReferrer(tx *gorm.DB, referrerID uint, user *models.User, record *models.PaymentRecord) error {
	bonus := referralBonusFor(record.Amount)
	earning := &models.ReferralEarning{
		ReferrerID:     referrerID,
		ReferredUserID: user.ID,
		Amount:         bonus,
		IsWithdrawable: true,
	}
	if err := tx.Create(earning).Error; err != nil {
		return fmt.Errorf("create referral earning: %w", err)
	}
	profiles := repository.NewProfileRepository(tx)
	if err := profiles.CreditApproved(referrerID, bonus); err != nil {
		return fmt.Errorf("credit referrer: %w", err)
	}
	notif := &models.Notification{
		UserID: referrerID,
		Type:   domain.NotifTypeReferralBonus,
		Title:  "Referral bonus earned",
		Body:   fmt.Sprintf("You earned KES %s because %s joined with your referral code.", bonus.StringFixed(2), user.FullName),
	}
	return tx.Create(notif).Error
}

// recordFailure writes an audit entry so a confirmed-but-unprovisioned
// payment can be alerted on and retried. Best effort; the verify error is
// what the caller acts on.
func (p *AccountProvisioner) recordFailure(record *models.PaymentRecord, cause error) {
	meta, _ := json.Marshal(map[string]string{
		"merchant_reference": record.MerchantReference,
		"email":              record.Email,
		"error":              cause.Error(),
	})
	entry := &models.AuditLog{
		Action:     "payment_provisioning_failed",
		Resource:   "payments",
		ResourceID: record.MerchantReference,
		Metadata:   string(meta),
	}
	if err := p.audit.Create(entry); err != nil {
		log.Printf("[AUDIT] write failed for ref=%s: %v", record.MerchantReference, err)
	}
}
