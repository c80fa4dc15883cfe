package checkout

import (
	"encoding/json"
	"time"
)

// EventType classifies a checkout session.
type EventType string

const (
	EventActiveCart EventType = "ACTIVE_CART"
	EventAbandoned  EventType = "ABANDONED"
)

// Checkout represents an in-progress or abandoned shopping session, tracked
// for cart-recovery messaging. Keyed by the cart token when the webhook
// carries one, otherwise by a synthetic timestamp-based id.
type Checkout struct {
	ID              string          `json:"id"`
	EventType       EventType       `json:"eventType"`
	CartToken       string          `json:"cartToken"`
	PhoneNormalized string          `json:"phoneNormalized"`
	Email           string          `json:"email"`
	FirstName       string          `json:"firstName"`
	TotalPrice      string          `json:"totalPrice"`
	RecoverySent    bool            `json:"recoverySent"`
	Payload         json.RawMessage `json:"payload,omitempty"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
