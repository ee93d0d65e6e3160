package mercadopago

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orderzap/orderzap/internal/reconcile"
)

// flexID tolerates Mercado Pago sending data.id as a number or a string
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %s", string(b))
	}
	*f = flexID(n.String())
	return nil
}

// webhookBody covers both notification formats Mercado Pago delivers:
// the "type/data.id" webhook shape and the older "topic/resource" IPN
// shape where the payment id is the trailing segment of a resource URL.
type webhookBody struct {
	Type     string `json:"type"`
	Topic    string `json:"topic"`
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Data     struct {
		ID flexID `json:"id"`
	} `json:"data"`
}

// ParseWebhook normalizes a raw Mercado Pago webhook body. A malformed
// JSON body is an error; a valid body without a payment id is not (the
// reconciler reports that case itself).
func ParseWebhook(body []byte) (reconcile.Notification, error) {
	var raw webhookBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return reconcile.Notification{}, fmt.Errorf("invalid webhook body: %w", err)
	}

	n := reconcile.Notification{EventType: eventType(raw)}

	if id := string(raw.Data.ID); id != "" {
		n.PaymentID = id
	} else if raw.Resource != "" {
		n.PaymentID = trailingSegment(raw.Resource)
	}

	return n, nil
}

func eventType(raw webhookBody) reconcile.EventType {
	kind := raw.Type
	if kind == "" {
		kind = raw.Topic
	}
	switch strings.ToLower(kind) {
	case "payment":
		return reconcile.EventTypePayment
	case "merchant_order":
		return reconcile.EventTypeMerchantOrder
	default:
		return reconcile.EventTypeOther
	}
}

func trailingSegment(resource string) string {
	resource = strings.TrimSuffix(strings.TrimSpace(resource), "/")
	if idx := strings.LastIndex(resource, "/"); idx >= 0 {
		return resource[idx+1:]
	}
	return resource
}
