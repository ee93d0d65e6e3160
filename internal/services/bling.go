package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// BlingService triggers order sync with the Bling ERP after a payment is
// confirmed. Field mapping is the ERP integration's concern; this only
// hands over the identifying reference and amount.
type BlingService struct {
	baseURL string
	client  *http.Client
}

func NewBlingService(baseURL string) *BlingService {
	return &BlingService{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// SyncOrderRequest is the minimal payload Bling needs to pick an order up
type SyncOrderRequest struct {
	ExternalID    string  `json:"numeroPedidoLoja"`
	CustomerName  string  `json:"contato"`
	CustomerPhone string  `json:"telefone,omitempty"`
	Total         float64 `json:"total"`
}

func (s *BlingService) SyncOrder(ctx context.Context, accessToken string, order SyncOrderRequest) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/pedidos/vendas", bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sync failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
