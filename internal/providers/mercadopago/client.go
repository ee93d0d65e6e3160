// Package mercadopago holds the Mercado Pago API client and webhook-body
// normalization. Provider-specific shapes stay here; the reconciler only
// sees normalized records.
package mercadopago

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

// paymentResponse is the subset of GET /v1/payments/{id} we consume
type paymentResponse struct {
	Status            string  `json:"status"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	Metadata          struct {
		PreferenceID string `json:"preference_id"`
	} `json:"metadata"`
	PointOfInteraction struct {
		TransactionData struct {
			QRCode string `json:"qr_code"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

// GetPayment fetches the authoritative payment state. The access token is
// the tenant's (or, for renewals, the platform's) Mercado Pago credential.
func (c *Client) GetPayment(ctx context.Context, accessToken, paymentID string) (*reconcile.PaymentDetails, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payment fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payment paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}

	details := &reconcile.PaymentDetails{
		Status:            normalizeStatus(payment.Status),
		ExternalReference: payment.ExternalReference,
		Amount:            payment.TransactionAmount,
	}
	if payment.Metadata.PreferenceID != "" {
		details.ReferenceCandidates = append(details.ReferenceCandidates, payment.Metadata.PreferenceID)
	}
	// A preference id embedded in the QR payload still resolves orders
	// created through point-of-sale checkouts
	details.ReferenceCandidates = append(details.ReferenceCandidates,
		reconcile.ReferenceCandidates(payment.PointOfInteraction.TransactionData.QRCode)...)

	return details, nil
}

func normalizeStatus(status string) reconcile.PaymentStatus {
	switch strings.ToLower(status) {
	case "approved":
		return reconcile.StatusApproved
	case "pending", "in_process", "in_mediation", "authorized":
		return reconcile.StatusPending
	case "rejected", "cancelled", "refunded", "charged_back":
		return reconcile.StatusRejected
	default:
		return reconcile.StatusUnknown
	}
}
