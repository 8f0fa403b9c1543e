package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// LipanaProvider implements M-Pesa STK push via the Lipana API.
type LipanaProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewLipanaProvider(baseURL, apiKey string) *LipanaProvider {
	if baseURL == "" {
		baseURL = "https://api.lipana.dev"
	}
	return &LipanaProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type lipanaPushReq struct {
	Phone  string  `json:"phone"`
	Amount float64 `json:"amount"`
}

// lipanaEnvelope covers both push-stk and status responses. The transaction
// id has moved between fields across API revisions, so all three are read.
type lipanaEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  string `json:"status"`
	Data    struct {
		TransactionID     string `json:"transactionId"`
		CheckoutRequestID string `json:"checkoutRequestID"`
		PaymentID         string `json:"paymentId"`
		Status            string `json:"status"`
	} `json:"data"`
}

func (e *lipanaEnvelope) transactionID() string {
	if e.Data.TransactionID != "" {
		return e.Data.TransactionID
	}
	if e.Data.CheckoutRequestID != "" {
		return e.Data.CheckoutRequestID
	}
	return e.Data.PaymentID
}

func (e *lipanaEnvelope) errorMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Error != "" {
		return e.Error
	}
	return "request rejected"
}

// PushCharge issues an STK push to the customer's phone and returns the
// provider's transaction id for later status polling.
func (p *LipanaProvider) PushCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	payload := lipanaPushReq{Phone: req.PhoneNumber, Amount: req.Amount.InexactFloat64()}
	body, _ := json.Marshal(payload)
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v1/transactions/push-stk", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("x-api-key", p.APIKey)
	log.Printf("[LIPANA] POST %s/v1/transactions/push-stk phone=%s amount=%s", p.BaseURL, req.PhoneNumber, req.Amount)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var out lipanaEnvelope
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("lipana push-stk: unexpected response (%d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("[LIPANA] push-stk rejected status=%d body=%s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("lipana push-stk: %s", out.errorMessage())
	}
	if !out.Success {
		return nil, fmt.Errorf("lipana push-stk: %s", out.errorMessage())
	}
	txnID := out.transactionID()
	if txnID == "" {
		return nil, fmt.Errorf("lipana push-stk: response carried no transaction id")
	}
	log.Printf("[LIPANA] STK push accepted transaction_id=%s", txnID)
	return &ChargeResponse{TransactionID: txnID, Message: out.Message}, nil
}

// CheckStatus fetches the charge's current provider status and normalizes
// it. The caller bounds the call with its own context timeout.
func (p *LipanaProvider) CheckStatus(ctx context.Context, transactionID string) (Status, error) {
	apiReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"/v1/payments/"+transactionID, nil)
	if err != nil {
		return StatusPending, err
	}
	apiReq.Header.Set("Content-Type", "application/json")
	apiReq.Header.Set("x-api-key", p.APIKey)
	resp, err := p.client.Do(apiReq)
	if err != nil {
		return StatusPending, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	var out lipanaEnvelope
	if err := json.Unmarshal(respBody, &out); err != nil {
		return StatusPending, fmt.Errorf("lipana status: unexpected response (%d): %w", resp.StatusCode, err)
	}
	raw := out.Data.Status
	if raw == "" {
		raw = out.Status
	}
	log.Printf("[LIPANA] status transaction_id=%s raw=%q", transactionID, raw)
	return NormalizeStatus(raw), nil
}
