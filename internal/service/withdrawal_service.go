package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/pkg/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrWithdrawalNotFound    = errors.New("withdrawal not found")
	ErrWithdrawalNotPending  = errors.New("withdrawal is not pending")
	ErrBelowFirstMinimum     = fmt.Errorf("first withdrawal must be at least KES %d", domain.MinFirstWithdrawalKES)
	ErrInvalidWithdrawAmount = errors.New("withdrawal amount must be positive")
)

type WithdrawalStore interface {
	Create(w *models.Withdrawal) error
	GetByID(id uint) (*models.Withdrawal, error)
	Update(w *models.Withdrawal) error
}

// BalanceStore is the slice of the profile repository the withdrawal flow
// needs: conditional debit on request, plain refund on rejection.
type BalanceStore interface {
	GetByUserID(userID uint) (*models.Profile, error)
	Update(profile *models.Profile) error
	DebitApproved(userID uint, amount decimal.Decimal) error
	RefundApproved(userID uint, amount decimal.Decimal) error
}

type WithdrawalService struct {
	withdrawals WithdrawalStore
	profiles    BalanceStore
	notifier    Notifier
}

func NewWithdrawalService(withdrawals WithdrawalStore, profiles BalanceStore, notifier Notifier) *WithdrawalService {
	return &WithdrawalService{withdrawals: withdrawals, profiles: profiles, notifier: notifier}
}

// Request debits the approved balance up front and queues the withdrawal
// for admin processing. Rejection refunds the debit.
func (s *WithdrawalService) Request(userID uint, amount decimal.Decimal, phoneNumber string) (*models.Withdrawal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidWithdrawAmount
	}
	phone, err := payment.FormatPhone(phoneNumber)
	if err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !profile.HasWithdrawn && amount.LessThan(decimal.NewFromInt(domain.MinFirstWithdrawalKES)) {
		return nil, ErrBelowFirstMinimum
	}

	if err := s.profiles.DebitApproved(userID, amount); err != nil {
		return nil, err
	}

	details, _ := json.Marshal(map[string]string{"phone_number": phone})
	w := &models.Withdrawal{
		UserID:         userID,
		OrderID:        "WD-" + uuid.NewString(),
		Amount:         amount,
		PaymentMethod:  "mpesa",
		PaymentDetails: string(details),
		Status:         domain.WithdrawalPending,
	}
	if err := s.withdrawals.Create(w); err != nil {
		// Hand the money back if the request row cannot be written.
		_ = s.profiles.RefundApproved(userID, amount)
		return nil, err
	}
	return w, nil
}

func (s *WithdrawalService) Approve(adminID, withdrawalID uint) (*models.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(withdrawalID)
	if err != nil {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != domain.WithdrawalPending && w.Status != domain.WithdrawalHeld {
		return nil, ErrWithdrawalNotPending
	}

	now := time.Now()
	w.Status = domain.WithdrawalApproved
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	if err := s.withdrawals.Update(w); err != nil {
		return nil, err
	}

	if profile, err := s.profiles.GetByUserID(w.UserID); err == nil && !profile.HasWithdrawn {
		profile.HasWithdrawn = true
		_ = s.profiles.Update(profile)
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(w.UserID, domain.NotifTypeWithdrawalProcessed,
			"Withdrawal approved",
			fmt.Sprintf("Your withdrawal of KES %s has been approved and is being paid out.", w.Amount.StringFixed(2)))
	}
	return w, nil
}

// Reject refunds the debited amount back to the approved balance.
func (s *WithdrawalService) Reject(adminID, withdrawalID uint, reason string) (*models.Withdrawal, error) {
	w, err := s.withdrawals.GetByID(withdrawalID)
	if err != nil {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != domain.WithdrawalPending && w.Status != domain.WithdrawalHeld {
		return nil, ErrWithdrawalNotPending
	}

	now := time.Now()
	w.Status = domain.WithdrawalRejected
	w.RejectionReason = reason
	w.ProcessedBy = &adminID
	w.ProcessedAt = &now
	if err := s.withdrawals.Update(w); err != nil {
		return nil, err
	}
	if err := s.profiles.RefundApproved(w.UserID, w.Amount); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		body := fmt.Sprintf("Your withdrawal of KES %s was rejected and refunded to your balance.", w.Amount.StringFixed(2))
		if reason != "" {
			body += " Reason: " + reason
		}
		_ = s.notifier.Notify(w.UserID, domain.NotifTypeWithdrawalProcessed, "Withdrawal rejected", body)
	}
	return w, nil
}
