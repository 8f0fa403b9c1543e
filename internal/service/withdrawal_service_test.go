package service

import (
	"errors"
	"strings"
	"testing"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/internal/repository"

	"github.com/shopspring/decimal"
)

type fakeWithdrawalStore struct {
	withdrawals map[uint]*models.Withdrawal
	nextID      uint
	createErr   error
}

func newFakeWithdrawalStore() *fakeWithdrawalStore {
	return &fakeWithdrawalStore{withdrawals: make(map[uint]*models.Withdrawal)}
}

func (s *fakeWithdrawalStore) Create(w *models.Withdrawal) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	w.ID = s.nextID
	s.withdrawals[w.ID] = w
	return nil
}

func (s *fakeWithdrawalStore) GetByID(id uint) (*models.Withdrawal, error) {
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return w, nil
}

func (s *fakeWithdrawalStore) Update(w *models.Withdrawal) error {
	s.withdrawals[w.ID] = w
	return nil
}

type fakeBalanceStore struct {
	profiles map[uint]*models.Profile
}

func (s *fakeBalanceStore) GetByUserID(userID uint) (*models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (s *fakeBalanceStore) Update(profile *models.Profile) error {
	s.profiles[profile.UserID] = profile
	return nil
}

func (s *fakeBalanceStore) DebitApproved(userID uint, amount decimal.Decimal) error {
	p := s.profiles[userID]
	if p.ApprovedBalance.LessThan(amount) {
		return repository.ErrInsufficientBalance
	}
	p.ApprovedBalance = p.ApprovedBalance.Sub(amount)
	return nil
}

func (s *fakeBalanceStore) RefundApproved(userID uint, amount decimal.Decimal) error {
	p := s.profiles[userID]
	p.ApprovedBalance = p.ApprovedBalance.Add(amount)
	return nil
}

func newWithdrawalFixture(balance int64, hasWithdrawn bool) (*WithdrawalService, *fakeWithdrawalStore, *fakeBalanceStore) {
	store := newFakeWithdrawalStore()
	balances := &fakeBalanceStore{profiles: map[uint]*models.Profile{
		7: {UserID: 7, ApprovedBalance: decimal.NewFromInt(balance), HasWithdrawn: hasWithdrawn},
	}}
	svc := NewWithdrawalService(store, balances, &fakeNotifier{})
	return svc, store, balances
}

func TestRequestDebitsBalanceUpFront(t *testing.T) {
	svc, _, balances := newWithdrawalFixture(5000, false)

	w, err := svc.Request(7, decimal.NewFromInt(3500), "0712345678")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if w.Status != domain.WithdrawalPending {
		t.Errorf("status = %q, want pending", w.Status)
	}
	if !strings.HasPrefix(w.OrderID, "WD-") {
		t.Errorf("order id = %q", w.OrderID)
	}
	if !strings.Contains(w.PaymentDetails, "+254712345678") {
		t.Errorf("payment details = %q, want canonical phone", w.PaymentDetails)
	}
	if !balances.profiles[7].ApprovedBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("balance = %s, want 1500", balances.profiles[7].ApprovedBalance)
	}
}

func TestRequestEnforcesFirstWithdrawalMinimum(t *testing.T) {
	svc, _, balances := newWithdrawalFixture(5000, false)

	if _, err := svc.Request(7, decimal.NewFromInt(500), "0712345678"); !errors.Is(err, ErrBelowFirstMinimum) {
		t.Fatalf("err = %v, want ErrBelowFirstMinimum", err)
	}
	if !balances.profiles[7].ApprovedBalance.Equal(decimal.NewFromInt(5000)) {
		t.Error("balance changed on a rejected request")
	}

	// No minimum after the first successful withdrawal.
	svc2, _, _ := newWithdrawalFixture(5000, true)
	if _, err := svc2.Request(7, decimal.NewFromInt(500), "0712345678"); err != nil {
		t.Fatalf("repeat withdrawal: %v", err)
	}
}

func TestRequestRejectsOverdraw(t *testing.T) {
	svc, _, _ := newWithdrawalFixture(3200, false)

	if _, err := svc.Request(7, decimal.NewFromInt(4000), "0712345678"); !errors.Is(err, repository.ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestRequestRefundsWhenCreateFails(t *testing.T) {
	svc, store, balances := newWithdrawalFixture(5000, true)
	store.createErr = errors.New("db down")

	if _, err := svc.Request(7, decimal.NewFromInt(1000), "0712345678"); err == nil {
		t.Fatal("expected error")
	}
	if !balances.profiles[7].ApprovedBalance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("balance = %s, want debit refunded", balances.profiles[7].ApprovedBalance)
	}
}

func TestApproveMarksFirstWithdrawal(t *testing.T) {
	svc, _, balances := newWithdrawalFixture(5000, false)
	w, err := svc.Request(7, decimal.NewFromInt(3500), "0712345678")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}

	approved, err := svc.Approve(99, w.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != domain.WithdrawalApproved || approved.ProcessedBy == nil || approved.ProcessedAt == nil {
		t.Errorf("approved = %+v", approved)
	}
	if !balances.profiles[7].HasWithdrawn {
		t.Error("has_withdrawn not set after first approval")
	}

	if _, err := svc.Approve(99, w.ID); !errors.Is(err, ErrWithdrawalNotPending) {
		t.Fatalf("double approve err = %v", err)
	}
}

func TestRejectRefundsTheDebit(t *testing.T) {
	svc, _, balances := newWithdrawalFixture(5000, true)
	w, err := svc.Request(7, decimal.NewFromInt(2000), "0712345678")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !balances.profiles[7].ApprovedBalance.Equal(decimal.NewFromInt(3000)) {
		t.Fatalf("balance after request = %s", balances.profiles[7].ApprovedBalance)
	}

	rejected, err := svc.Reject(99, w.ID, "mismatched phone number")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != domain.WithdrawalRejected || rejected.RejectionReason == "" {
		t.Errorf("rejected = %+v", rejected)
	}
	if !balances.profiles[7].ApprovedBalance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("balance = %s, want full refund", balances.profiles[7].ApprovedBalance)
	}
}
