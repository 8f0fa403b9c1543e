package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPushChargeParsesTransactionID(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"transactionId", `{"success":true,"data":{"transactionId":"txn-1"}}`, "txn-1"},
		{"checkoutRequestID", `{"success":true,"data":{"checkoutRequestID":"ws_CO_2"}}`, "ws_CO_2"},
		{"paymentId", `{"success":true,"data":{"paymentId":"pay-3"}}`, "pay-3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/v1/transactions/push-stk" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("x-api-key") != "secret" {
					t.Errorf("missing x-api-key header")
				}
				var req struct {
					Phone  string  `json:"phone"`
					Amount float64 `json:"amount"`
				}
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("decode request: %v", err)
				}
				if req.Phone != "+254712345678" || req.Amount != 100 {
					t.Errorf("unexpected payload: %+v", req)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewLipanaProvider(srv.URL, "secret")
			resp, err := p.PushCharge(context.Background(), ChargeRequest{
				PhoneNumber: "+254712345678",
				Amount:      decimal.NewFromInt(100),
			})
			if err != nil {
				t.Fatalf("PushCharge: %v", err)
			}
			if resp.TransactionID != tc.want {
				t.Errorf("TransactionID = %q, want %q", resp.TransactionID, tc.want)
			}
		})
	}
}

func TestPushChargeRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"error":"insufficient float"}`))
	}))
	defer srv.Close()

	p := NewLipanaProvider(srv.URL, "secret")
	if _, err := p.PushCharge(context.Background(), ChargeRequest{PhoneNumber: "+254712345678", Amount: decimal.NewFromInt(100)}); err == nil {
		t.Fatal("expected error for rejected push")
	}
}

func TestPushChargeMissingTransactionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{}}`))
	}))
	defer srv.Close()

	p := NewLipanaProvider(srv.URL, "secret")
	if _, err := p.PushCharge(context.Background(), ChargeRequest{PhoneNumber: "+254712345678", Amount: decimal.NewFromInt(100)}); err == nil {
		t.Fatal("expected error when response has no transaction id")
	}
}

func TestCheckStatusReadsNestedThenTopLevel(t *testing.T) {
	cases := []struct {
		name string
		body string
		want Status
	}{
		{"nested data.status", `{"success":true,"data":{"status":"COMPLETED"}}`, StatusSuccess},
		{"top-level status", `{"success":true,"status":"cancelled"}`, StatusCancelled},
		{"nested wins", `{"status":"FAILED","data":{"status":"SUCCESS"}}`, StatusSuccess},
		{"unknown is pending", `{"success":true,"data":{"status":"SOMETHING_NEW"}}`, StatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/payments/txn-9" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			p := NewLipanaProvider(srv.URL, "secret")
			got, err := p.CheckStatus(context.Background(), "txn-9")
			if err != nil {
				t.Fatalf("CheckStatus: %v", err)
			}
			if got != tc.want {
				t.Errorf("CheckStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCheckStatusTransportErrorIsPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := NewLipanaProvider(srv.URL, "secret")
	got, err := p.CheckStatus(context.Background(), "txn-9")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if got != StatusPending {
		t.Errorf("status on transport error = %q, want PENDING", got)
	}
}
