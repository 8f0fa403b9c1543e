package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"edupulse/internal/domain"
	"edupulse/internal/models"
	"edupulse/pkg/payment"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type fakePaymentStore struct {
	records map[string]*models.PaymentRecord
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{records: make(map[string]*models.PaymentRecord)}
}

func (s *fakePaymentStore) Create(record *models.PaymentRecord) error {
	copied := *record
	s.records[record.MerchantReference] = &copied
	return nil
}

func (s *fakePaymentStore) GetByMerchantReference(ref string) (*models.PaymentRecord, error) {
	r, ok := s.records[ref]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *r
	return &copied, nil
}

func (s *fakePaymentStore) SetAwaitingConfirmation(ref, transactionID string) error {
	r := s.records[ref]
	r.LipanaTransactionID = transactionID
	r.Status = domain.PaymentAwaitingConfirmation
	return nil
}

func (s *fakePaymentStore) MarkTerminalFailure(ref, status, reason string) error {
	r := s.records[ref]
	if r.Status == domain.PaymentCompleted {
		return nil
	}
	r.Status = status
	r.FailReason = reason
	r.PendingPasswordHash = ""
	return nil
}

type fakeEmailChecker struct {
	existing map[string]bool
}

func (c *fakeEmailChecker) EmailExists(email string) (bool, error) {
	return c.existing[email], nil
}

type fakeSettings struct {
	values map[string]string
}

func (s *fakeSettings) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", errors.New("setting not found")
	}
	return v, nil
}

type fakeProvider struct {
	pushCalls   int
	pushErr     error
	txnID       string
	statusCalls int
	statuses    []payment.Status
	statusErr   error
}

func (p *fakeProvider) PushCharge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResponse, error) {
	p.pushCalls++
	if p.pushErr != nil {
		return nil, p.pushErr
	}
	return &payment.ChargeResponse{TransactionID: p.txnID}, nil
}

func (p *fakeProvider) CheckStatus(ctx context.Context, transactionID string) (payment.Status, error) {
	p.statusCalls++
	if p.statusErr != nil {
		return payment.StatusPending, p.statusErr
	}
	idx := p.statusCalls - 1
	if idx >= len(p.statuses) {
		idx = len(p.statuses) - 1
	}
	return p.statuses[idx], nil
}

// fakeProvisioner claims via the backing store the way the real one does:
// the first call completes the record, later calls see it completed.
type fakeProvisioner struct {
	store      *fakePaymentStore
	provisions int
	failWith   error
}

func (f *fakeProvisioner) Provision(record *models.PaymentRecord) (*models.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	r := f.store.records[record.MerchantReference]
	if r.Status == domain.PaymentCompleted {
		return nil, ErrAlreadyProvisioned
	}
	r.Status = domain.PaymentCompleted
	r.PendingPasswordHash = ""
	now := time.Now()
	r.CompletedAt = &now
	f.provisions++
	user := &models.User{ID: uint(f.provisions), Email: record.Email}
	user.Profile = newProfileForRecord(record, user.ID, "TESTCODE")
	return user, nil
}

func newTestService(store *fakePaymentStore, provider *fakeProvider, prov Provisioner) *PaymentService {
	return NewPaymentService(
		store,
		&fakeEmailChecker{existing: map[string]bool{"taken@example.com": true}},
		&fakeSettings{values: map[string]string{domain.SettingRegistrationFee: "150"}},
		provider,
		prov,
		time.Second,
	)
}

func TestInitiateCreatesAwaitingRecord(t *testing.T) {
	store := newFakePaymentStore()
	provider := &fakeProvider{txnID: "txn-1"}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	record, err := svc.Initiate(context.Background(), InitiateRequest{
		Email:       "new@example.com",
		FullName:    "Jane Wanjiku",
		Password:    "hunter2hunter2",
		PhoneNumber: "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if record.Status != domain.PaymentAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", record.Status)
	}
	if record.LipanaTransactionID != "txn-1" {
		t.Errorf("transaction id = %q", record.LipanaTransactionID)
	}
	if !strings.HasPrefix(record.MerchantReference, "EDUPULSE-") {
		t.Errorf("merchant reference = %q", record.MerchantReference)
	}
	if record.PhoneNumber != "+254712345678" {
		t.Errorf("phone = %q, want canonical +254 form", record.PhoneNumber)
	}
	if !record.Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("amount = %s, want configured fee 150", record.Amount)
	}

	stored := store.records[record.MerchantReference]
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PendingPasswordHash), []byte("hunter2hunter2")); err != nil {
		t.Error("stored pending hash does not match the password")
	}
	if provider.pushCalls != 1 {
		t.Errorf("push calls = %d, want 1", provider.pushCalls)
	}
}

func TestInitiateRejectsInvalidPhone(t *testing.T) {
	store := newFakePaymentStore()
	provider := &fakeProvider{txnID: "txn-1"}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Email:       "new@example.com",
		FullName:    "Jane",
		Password:    "hunter2hunter2",
		PhoneNumber: "0812345678",
	})
	if !errors.Is(err, payment.ErrInvalidPhone) {
		t.Fatalf("err = %v, want ErrInvalidPhone", err)
	}
	if provider.pushCalls != 0 {
		t.Error("provider was called for an invalid phone")
	}
	if len(store.records) != 0 {
		t.Error("record was created for an invalid phone")
	}
}

func TestInitiateRejectsExistingEmail(t *testing.T) {
	store := newFakePaymentStore()
	provider := &fakeProvider{txnID: "txn-1"}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	_, err := svc.Initiate(context.Background(), InitiateRequest{
		Email:       "taken@example.com",
		FullName:    "Jane",
		Password:    "hunter2hunter2",
		PhoneNumber: "0712345678",
	})
	if !errors.Is(err, ErrEmailExists) {
		t.Fatalf("err = %v, want ErrEmailExists", err)
	}
	if provider.pushCalls != 0 {
		t.Error("provider was called for a duplicate email")
	}
}

func TestInitiatePushFailureMarksRecordFailed(t *testing.T) {
	store := newFakePaymentStore()
	provider := &fakeProvider{pushErr: errors.New("gateway down")}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	record, err := svc.Initiate(context.Background(), InitiateRequest{
		Email:       "new@example.com",
		FullName:    "Jane",
		Password:    "hunter2hunter2",
		PhoneNumber: "0712345678",
	})
	if err == nil {
		t.Fatal("expected error when push fails")
	}
	stored := store.records[record.MerchantReference]
	if stored.Status != domain.PaymentFailed {
		t.Errorf("status = %q, want failed", stored.Status)
	}
	if stored.PendingPasswordHash != "" {
		t.Error("pending hash not scrubbed on terminal failure")
	}
}

func seedAwaiting(store *fakePaymentStore, ref string) *models.PaymentRecord {
	record := &models.PaymentRecord{
		MerchantReference:   ref,
		LipanaTransactionID: "txn-9",
		Status:              domain.PaymentAwaitingConfirmation,
		Amount:              decimal.NewFromInt(150),
		Email:               "new@example.com",
		FullName:            "Jane",
		PendingPasswordHash: "$2a$10$fakehash",
	}
	store.records[ref] = record
	return record
}

func TestVerifyCompletedShortCircuits(t *testing.T) {
	store := newFakePaymentStore()
	record := seedAwaiting(store, "EDUPULSE-1")
	record.Status = domain.PaymentCompleted
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusSuccess}}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentCompleted {
		t.Errorf("status = %q, want completed", result.Status)
	}
	if provider.statusCalls != 0 {
		t.Errorf("provider consulted %d times for a completed record", provider.statusCalls)
	}
}

func TestVerifyUnknownReference(t *testing.T) {
	store := newFakePaymentStore()
	svc := newTestService(store, &fakeProvider{}, &fakeProvisioner{store: store})

	_, err := svc.Verify(context.Background(), "EDUPULSE-missing")
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

func TestVerifyWithoutTransactionIDStaysPut(t *testing.T) {
	store := newFakePaymentStore()
	record := seedAwaiting(store, "EDUPULSE-1")
	record.LipanaTransactionID = ""
	record.Status = domain.PaymentPending
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusSuccess}}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentPending {
		t.Errorf("status = %q, want pending", result.Status)
	}
	if provider.statusCalls != 0 {
		t.Error("provider consulted without a transaction id")
	}
}

func TestVerifyProviderErrorStaysPending(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statusErr: errors.New("502 from provider")}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", result.Status)
	}
	if store.records["EDUPULSE-1"].Status != domain.PaymentAwaitingConfirmation {
		t.Error("record status changed on a provider error")
	}
}

func TestVerifySuccessProvisionsExactlyOnce(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusSuccess}}
	prov := &fakeProvisioner{store: store}
	svc := newTestService(store, provider, prov)

	first, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if first.Status != domain.PaymentCompleted || first.User == nil {
		t.Fatalf("first verify: status=%q user=%v", first.Status, first.User)
	}
	if first.User.Profile == nil {
		t.Fatal("provisioned user has no profile")
	}
	if !first.User.Profile.ApprovedBalance.Equal(decimal.NewFromInt(150)) {
		t.Errorf("opening approved balance = %s, want the 150 fee", first.User.Profile.ApprovedBalance)
	}
	if !first.User.Profile.TotalEarnings.Equal(decimal.NewFromInt(150)) {
		t.Errorf("opening total earnings = %s, want the 150 fee", first.User.Profile.TotalEarnings)
	}

	// Repeat verifies must be no-ops.
	for i := 0; i < 5; i++ {
		res, err := svc.Verify(context.Background(), "EDUPULSE-1")
		if err != nil {
			t.Fatalf("repeat Verify: %v", err)
		}
		if res.Status != domain.PaymentCompleted {
			t.Errorf("repeat verify status = %q", res.Status)
		}
	}
	if prov.provisions != 1 {
		t.Errorf("provisions = %d, want exactly 1", prov.provisions)
	}
	if provider.statusCalls != 1 {
		t.Errorf("provider calls = %d, want 1 (completed short-circuits)", provider.statusCalls)
	}
}

func TestVerifyFailureIsTerminal(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusFailed}}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentFailed {
		t.Errorf("status = %q, want failed", result.Status)
	}
	stored := store.records["EDUPULSE-1"]
	if stored.PendingPasswordHash != "" {
		t.Error("pending hash not scrubbed on failure")
	}

	// A later (stale) success from the provider must not resurrect it.
	provider.statuses = []payment.Status{payment.StatusSuccess}
	res, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify after terminal: %v", err)
	}
	if res.Status != domain.PaymentFailed {
		t.Errorf("terminal status regressed to %q", res.Status)
	}
}

func TestVerifyCancelledIsTerminal(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusCancelled}}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentCancelled {
		t.Errorf("status = %q, want cancelled", result.Status)
	}
}

func TestVerifyProvisioningFailureKeepsRecordRetryable(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusSuccess}}
	prov := &fakeProvisioner{store: store, failWith: errors.New("db write failed")}
	svc := newTestService(store, provider, prov)

	if _, err := svc.Verify(context.Background(), "EDUPULSE-1"); err == nil {
		t.Fatal("expected error when provisioning fails")
	}
	if store.records["EDUPULSE-1"].Status != domain.PaymentAwaitingConfirmation {
		t.Error("record was marked completed despite provisioning failure")
	}

	// Retry succeeds once the underlying fault clears.
	prov.failWith = nil
	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("retry Verify: %v", err)
	}
	if result.Status != domain.PaymentCompleted || result.User == nil {
		t.Errorf("retry did not provision: status=%q", result.Status)
	}
}

func TestVerifyProcessingStaysOpen(t *testing.T) {
	store := newFakePaymentStore()
	seedAwaiting(store, "EDUPULSE-1")
	provider := &fakeProvider{statuses: []payment.Status{payment.StatusProcessing}}
	svc := newTestService(store, provider, &fakeProvisioner{store: store})

	result, err := svc.Verify(context.Background(), "EDUPULSE-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Status != domain.PaymentAwaitingConfirmation {
		t.Errorf("status = %q, want awaiting_confirmation", result.Status)
	}
}

func TestRegistrationFeeFallsBackToDefault(t *testing.T) {
	store := newFakePaymentStore()
	provider := &fakeProvider{txnID: "txn-1"}
	svc := NewPaymentService(
		store,
		&fakeEmailChecker{existing: map[string]bool{}},
		&fakeSettings{values: map[string]string{}},
		provider,
		&fakeProvisioner{store: store},
		time.Second,
	)

	record, err := svc.Initiate(context.Background(), InitiateRequest{
		Email:       "new@example.com",
		FullName:    "Jane",
		Password:    "hunter2hunter2",
		PhoneNumber: "0712345678",
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if !record.Amount.Equal(domain.DefaultRegistrationFeeKES) {
		t.Errorf("amount = %s, want default fee", record.Amount)
	}
}
