package event

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// Kind is the classified type of an inbound webhook payload.
type Kind string

const (
	KindUnknown         Kind = "unknown"
	KindWhatsAppMessage Kind = "whatsapp_message"
	KindWhatsAppStatus  Kind = "whatsapp_status"
	KindCart            Kind = "cart"
	KindOrder           Kind = "order"
)

// FlexString decodes a JSON field that upstream systems send either as a
// string or as a bare number ("999.00" vs 42).
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())

	return nil
}

func (f FlexString) String() string { return string(f) }

// probe holds just enough of each known payload shape to tell them apart.
type probe struct {
	Object      string     `json:"object"`
	Entry       []Entry    `json:"entry"`
	CartID      FlexString `json:"cart_id"`
	LatestStage string     `json:"latest_stage"`
	OrderNumber FlexString `json:"order_number"`
}

// Classify inspects an inbound webhook body and query parameters and decides
// how it should be routed. Structural signals are checked in priority order;
// anything unrecognized is KindUnknown, which callers must acknowledge with
// an inert 200 so the sender never retries.
func Classify(body []byte, _ url.Values) Kind {
	var p probe
	if err := json.Unmarshal(body, &p); err != nil {
		return KindUnknown
	}

	if p.Object == "whatsapp_business_account" {
		for _, e := range p.Entry {
			for _, c := range e.Changes {
				if len(c.Value.Messages) > 0 {
					return KindWhatsAppMessage
				}
				if len(c.Value.Statuses) > 0 {
					return KindWhatsAppStatus
				}
			}
		}
		return KindUnknown
	}

	if p.CartID != "" || p.LatestStage != "" {
		return KindCart
	}

	if p.OrderNumber != "" {
		return KindOrder
	}

	return KindUnknown
}
