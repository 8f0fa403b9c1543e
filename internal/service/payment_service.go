package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/pkg/payment"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPaymentNotFound = errors.New("payment record not found")
	ErrEmailExists     = errors.New("an account with this email already exists")
)

// PaymentStore is the persistence surface the payment service needs.
// *repository.PaymentRepository satisfies it.
type PaymentStore interface {
	Create(record *models.PaymentRecord) error
	GetByMerchantReference(ref string) (*models.PaymentRecord, error)
	SetAwaitingConfirmation(ref, transactionID string) error
	MarkTerminalFailure(ref, status, reason string) error
}

type EmailChecker interface {
	EmailExists(email string) (bool, error)
}

type SettingReader interface {
	Get(key string) (string, error)
}

// Provisioner turns a confirmed payment record into a live account,
// exactly once. Implemented by AccountProvisioner.
type Provisioner interface {
	Provision(record *models.PaymentRecord) (*models.User, error)
}

type PaymentService struct {
	payments      PaymentStore
	users         EmailChecker
	settings      SettingReader
	provider      payment.Provider
	provisioner   Provisioner
	verifyTimeout time.Duration
}

func NewPaymentService(payments PaymentStore, users EmailChecker, settings SettingReader, provider payment.Provider, provisioner Provisioner, verifyTimeout time.Duration) *PaymentService {
	if verifyTimeout <= 0 {
		verifyTimeout = 10 * time.Second
	}
	return &PaymentService{
		payments:      payments,
		users:         users,
		settings:      settings,
		provider:      provider,
		provisioner:   provisioner,
		verifyTimeout: verifyTimeout,
	}
}

type InitiateRequest struct {
	Email       string
	FullName    string
	Password    string
	PhoneNumber string
	ReferredBy  *uint
}

// Initiate validates the registration payload, records a pending payment
// and fires the STK push. On success the record is awaiting_confirmation
// and the caller polls Verify with the returned merchant reference.
func (s *PaymentService) Initiate(ctx context.Context, req InitiateRequest) (*models.PaymentRecord, error) {
	phone, err := payment.FormatPhone(req.PhoneNumber)
	if err != nil {
		return nil, err
	}
	exists, err := s.users.EmailExists(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	fee := s.registrationFee()
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	record := &models.PaymentRecord{
		MerchantReference:   newMerchantReference(),
		Status:              domain.PaymentPending,
		Amount:              fee,
		Email:               req.Email,
		FullName:            req.FullName,
		PhoneNumber:         phone,
		PendingPasswordHash: string(hash),
		ReferredBy:          req.ReferredBy,
	}
	if err := s.payments.Create(record); err != nil {
		return nil, err
	}

	resp, err := s.provider.PushCharge(ctx, payment.ChargeRequest{
		PhoneNumber: phone,
		Amount:      fee,
	})
	if err != nil {
		log.Printf("[PAYMENT] push charge failed ref=%s: %v", record.MerchantReference, err)
		_ = s.payments.MarkTerminalFailure(record.MerchantReference, domain.PaymentFailed, "charge initiation failed")
		record.Status = domain.PaymentFailed
		record.FailReason = "charge initiation failed"
		return record, fmt.Errorf("payment initiation failed: %w", err)
	}

	if err := s.payments.SetAwaitingConfirmation(record.MerchantReference, resp.TransactionID); err != nil {
		return nil, err
	}
	record.LipanaTransactionID = resp.TransactionID
	record.Status = domain.PaymentAwaitingConfirmation
	log.Printf("[PAYMENT] charge initiated ref=%s txn=%s", record.MerchantReference, resp.TransactionID)
	return record, nil
}

// VerifyResult is the outcome of one verification attempt.
type VerifyResult struct {
	Status string       // payment record status after this attempt
	User   *models.User // set when this attempt provisioned the account
	Reason string       // failure reason, for terminal failures
}

// Verify checks the charge with the provider and, on confirmation,
// provisions the account. Idempotent: a completed record short-circuits
// without touching the provider, and repeat calls after provisioning
// return completed without side effects.
func (s *PaymentService) Verify(ctx context.Context, merchantRef string) (*VerifyResult, error) {
	record, err := s.payments.GetByMerchantReference(merchantRef)
	if err != nil {
		return nil, ErrPaymentNotFound
	}

	switch record.Status {
	case domain.PaymentCompleted:
		return &VerifyResult{Status: domain.PaymentCompleted}, nil
	case domain.PaymentFailed, domain.PaymentCancelled:
		return &VerifyResult{Status: record.Status, Reason: record.FailReason}, nil
	}

	if record.LipanaTransactionID == "" {
		// Push never went through; nothing to check yet.
		return &VerifyResult{Status: record.Status}, nil
	}

	checkCtx, cancel := context.WithTimeout(ctx, s.verifyTimeout)
	defer cancel()
	status, err := s.provider.CheckStatus(checkCtx, record.LipanaTransactionID)
	if err != nil {
		// Provider trouble is never a user failure; stay pending and retry.
		log.Printf("[PAYMENT] status check error ref=%s: %v", merchantRef, err)
		return &VerifyResult{Status: record.Status}, nil
	}

	switch status {
	case payment.StatusSuccess:
		user, err := s.provisioner.Provision(record)
		if err != nil {
			if errors.Is(err, ErrAlreadyProvisioned) {
				return &VerifyResult{Status: domain.PaymentCompleted}, nil
			}
			// Money confirmed but no account: keep the record retryable.
			log.Printf("[PAYMENT] provisioning failed ref=%s: %v", merchantRef, err)
			return nil, fmt.Errorf("account provisioning failed: %w", err)
		}
		log.Printf("[PAYMENT] completed ref=%s user=%d", merchantRef, user.ID)
		return &VerifyResult{Status: domain.PaymentCompleted, User: user}, nil

	case payment.StatusFailed:
		reason := "payment failed"
		if err := s.payments.MarkTerminalFailure(merchantRef, domain.PaymentFailed, reason); err != nil {
			return nil, err
		}
		return &VerifyResult{Status: domain.PaymentFailed, Reason: reason}, nil

	case payment.StatusCancelled:
		reason := "payment cancelled by user"
		if err := s.payments.MarkTerminalFailure(merchantRef, domain.PaymentCancelled, reason); err != nil {
			return nil, err
		}
		return &VerifyResult{Status: domain.PaymentCancelled, Reason: reason}, nil

	default: // PROCESSING, PENDING
		return &VerifyResult{Status: record.Status}, nil
	}
}

// Record fetches a payment record by its merchant reference.
func (s *PaymentService) Record(merchantRef string) (*models.PaymentRecord, error) {
	record, err := s.payments.GetByMerchantReference(merchantRef)
	if err != nil {
		return nil, ErrPaymentNotFound
	}
	return record, nil
}

func (s *PaymentService) registrationFee() decimal.Decimal {
	raw, err := s.settings.Get(domain.SettingRegistrationFee)
	if err != nil {
		return domain.DefaultRegistrationFeeKES
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil || fee.LessThanOrEqual(decimal.Zero) {
		return domain.DefaultRegistrationFeeKES
	}
	return fee
}

func newMerchantReference() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("EDUPULSE-%d", time.Now().UnixMilli())
	}
	return fmt.Sprintf("EDUPULSE-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
