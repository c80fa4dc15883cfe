package message

import (
	"errors"
	"time"
)

// Direction of a logged WhatsApp message.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// DeliveryStatus of an outbound message, patched from gateway callbacks.
type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDelivered DeliveryStatus = "delivered"
	StatusRead      DeliveryStatus = "read"
	StatusFailed    DeliveryStatus = "failed"
)

// Template names the pre-approved WhatsApp Business templates this system
// sends. The parameter list of each send must match the template's
// placeholders positionally.
type Template string

const (
	TemplateCODAutoConfirmation Template = "cod_auto_confirmation"
	TemplateConfirmAutoSchedule Template = "order_confirm_auto_schedule"
	TemplateCODConfirmed        Template = "cod_confirmed"
	TemplateUpdateAddress       Template = "update_address"
	TemplateCODCancel           Template = "cod_cancel"
	TemplateCartRecovery        Template = "cart_recovery"
)

var ErrNotFound = errors.New("message not found")

// Message is an immutable log entry for one inbound or outbound WhatsApp
// message. Outbound records are created exactly once at send time and only
// their Status is patched afterwards, correlated by WhatsappID.
type Message struct {
	ID              int64          `json:"id"`
	Phone           string         `json:"phone"`
	PhoneNormalized string         `json:"phoneNormalized"`
	Direction       Direction      `json:"direction"`
	Type            string         `json:"type"`
	Body            string         `json:"body"`
	TemplateName    Template       `json:"templateName,omitempty"`
	Status          DeliveryStatus `json:"status,omitempty"`
	WhatsappID      string         `json:"whatsappId,omitempty"`
	Timestamp       time.Time      `json:"timestamp"`
}
