// Package appmax holds the AppMax API client and webhook-body
// normalization. AppMax webhook payloads are loosely shaped (field names
// vary between event versions); everything tolerant lives here.
package appmax

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/orderzap/orderzap/internal/reconcile"
)

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// orderResponse is the subset of the AppMax order detail we consume
type orderResponse struct {
	Data struct {
		Status            string  `json:"status"`
		PaymentStatus     string  `json:"payment_status"`
		ExternalReference string  `json:"external_reference"`
		Total             float64 `json:"total"`
	} `json:"data"`
}

// GetPayment fetches the authoritative order state from AppMax. AppMax's
// notification id is its own order id; it plays the payment-id role here.
func (c *Client) GetPayment(ctx context.Context, accessToken, paymentID string) (*reconcile.PaymentDetails, error) {
	url := fmt.Sprintf("%s/order/%s?access-token=%s", c.baseURL, paymentID, accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("order fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode order response: %w", err)
	}

	status := order.Data.PaymentStatus
	if status == "" {
		status = order.Data.Status
	}

	return &reconcile.PaymentDetails{
		Status:            normalizeStatus(status),
		ExternalReference: order.Data.ExternalReference,
		Amount:            order.Data.Total,
	}, nil
}

// AppMax statuses come in Portuguese or English depending on the account
func normalizeStatus(status string) reconcile.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "aprovado", "approved", "paid", "pago", "integrado", "integrated":
		return reconcile.StatusApproved
	case "pendente", "pending", "aguardando pagamento", "authorized":
		return reconcile.StatusPending
	case "cancelado", "cancelled", "canceled", "recusado", "refused", "estornado", "refunded", "chargeback":
		return reconcile.StatusRejected
	default:
		return reconcile.StatusUnknown
	}
}
