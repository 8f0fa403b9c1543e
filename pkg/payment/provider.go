package payment

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Status is the canonical, provider-agnostic payment outcome. Nothing
// outside this package should ever see a provider-native status string.
type Status string

const (
	StatusSuccess    Status = "SUCCESS"
	StatusFailed     Status = "FAILED"
	StatusCancelled  Status = "CANCELLED"
	StatusProcessing Status = "PROCESSING"
	StatusPending    Status = "PENDING"
)

// Terminal reports whether no further polling can change the outcome.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// statusTable maps known provider vocabulary (upper-cased) to the canonical
// set. Each provider iteration used a different string set; membership here
// is the union of everything observed.
var statusTable = map[string]Status{
	"SUCCESS":   StatusSuccess,
	"COMPLETED": StatusSuccess,
	"PAID":      StatusSuccess,

	"FAILED":   StatusFailed,
	"DECLINED": StatusFailed,
	"TIMEOUT":  StatusFailed,

	"CANCELLED": StatusCancelled,
	"CANCELED":  StatusCancelled,

	"PROCESSING": StatusProcessing,

	"PENDING":                 StatusPending,
	"WAITING_FOR_USER_ACTION": StatusPending,
}

// NormalizeStatus maps any provider status string to a canonical Status.
// Matching is case-insensitive. Unrecognized strings map to PENDING, never
// FAILED: a spurious vocabulary change must not abort a payment that is
// still in flight.
func NormalizeStatus(raw string) Status {
	if s, ok := statusTable[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return s
	}
	return StatusPending
}

// ChargeRequest is a push-charge (STK push) to a customer's phone.
// PhoneNumber must already be in canonical +254 form (see FormatPhone).
type ChargeRequest struct {
	PhoneNumber string
	Amount      decimal.Decimal
}

// ChargeResponse carries the provider's handle for the new charge attempt.
type ChargeResponse struct {
	TransactionID string
	Message       string
}

// Provider is a mobile-money payment provider: it can push a charge to a
// phone and report the current status of a previous charge.
type Provider interface {
	PushCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	CheckStatus(ctx context.Context, transactionID string) (Status, error)
}
