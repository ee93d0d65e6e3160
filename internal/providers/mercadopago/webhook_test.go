package mercadopago

import (
	"testing"

	"github.com/orderzap/orderzap/internal/reconcile"
)

func TestParseWebhook(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantType  reconcile.EventType
		wantID    string
		wantError bool
	}{
		{
			name:     "payment with numeric data id",
			body:     `{"type":"payment","data":{"id":999}}`,
			wantType: reconcile.EventTypePayment,
			wantID:   "999",
		},
		{
			name:     "payment with string data id",
			body:     `{"type":"payment","data":{"id":"999"}}`,
			wantType: reconcile.EventTypePayment,
			wantID:   "999",
		},
		{
			name:     "topic form with resource url",
			body:     `{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/12345"}`,
			wantType: reconcile.EventTypePayment,
			wantID:   "12345",
		},
		{
			name:     "resource url with trailing slash",
			body:     `{"topic":"payment","resource":"https://api.mercadopago.com/v1/payments/12345/"}`,
			wantType: reconcile.EventTypePayment,
			wantID:   "12345",
		},
		{
			name:     "merchant order event",
			body:     `{"topic":"merchant_order","resource":"https://api.mercadopago.com/merchant_orders/555"}`,
			wantType: reconcile.EventTypeMerchantOrder,
			wantID:   "555",
		},
		{
			name:     "unrelated event",
			body:     `{"type":"plan","data":{"id":"1"}}`,
			wantType: reconcile.EventTypeOther,
			wantID:   "1",
		},
		{
			name:     "payment without id",
			body:     `{"type":"payment"}`,
			wantType: reconcile.EventTypePayment,
			wantID:   "",
		},
		{
			name:      "not json",
			body:      `not json at all`,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := ParseWebhook([]byte(tt.body))
			if tt.wantError {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n.EventType != tt.wantType {
				t.Errorf("EventType = %q; want %q", n.EventType, tt.wantType)
			}
			if n.PaymentID != tt.wantID {
				t.Errorf("PaymentID = %q; want %q", n.PaymentID, tt.wantID)
			}
		})
	}
}
