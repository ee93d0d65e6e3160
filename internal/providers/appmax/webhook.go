package appmax

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/orderzap/orderzap/internal/reconcile"
)

// flexID tolerates ids delivered as numbers or strings
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

type webhookPayload struct {
	OrderID flexID `json:"order_id"`
	ID      flexID `json:"id"`
}

// webhookBody tolerates the field aliases AppMax uses across event
// versions: event/type, data/body, order_id/id.
type webhookBody struct {
	Event             string          `json:"event"`
	Type              string          `json:"type"`
	Data              *webhookPayload `json:"data"`
	Body              *webhookPayload `json:"body"`
	ExternalReference string          `json:"external_reference"`
}

// paymentEvents are the AppMax events that represent a payment outcome.
// Everything else (customer created, cart abandoned, ...) is acknowledged
// without action.
var paymentEvents = map[string]bool{
	"orderapproved":        true,
	"orderpaid":            true,
	"orderpaidbypix":       true,
	"orderauthorized":      true,
	"paymentnotauthorized": true,
	"orderrefund":          true,
	"orderbilletcreated":   true,
	"pixgenerated":         true,
}

// ParseWebhook normalizes a raw AppMax webhook body. Parse errors are
// reported to the caller, but the AppMax handler intentionally answers 200
// for them anyway (retry-storm suppression).
func ParseWebhook(body []byte) (reconcile.Notification, error) {
	var raw webhookBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return reconcile.Notification{}, fmt.Errorf("invalid webhook body: %w", err)
	}

	event := raw.Event
	if event == "" {
		event = raw.Type
	}

	n := reconcile.Notification{
		EventType:         reconcile.EventTypeOther,
		ExternalReference: raw.ExternalReference,
	}
	if paymentEvents[strings.ToLower(strings.TrimSpace(event))] {
		n.EventType = reconcile.EventTypePayment
	}

	payload := raw.Data
	if payload == nil {
		payload = raw.Body
	}
	if payload != nil {
		if id := string(payload.OrderID); id != "" {
			n.PaymentID = id
		} else if id := string(payload.ID); id != "" {
			n.PaymentID = id
		}
	}

	return n, nil
}
