package order

import (
	"errors"
	"time"
)

// Status is the payment status of an order.
type Status string

const (
	StatusCOD       Status = "COD"
	StatusPaid      Status = "Paid"
	StatusCancelled Status = "CANCELLED"
)

// VerificationStatus tracks the COD confirmation workflow driven by the
// customer's WhatsApp replies.
type VerificationStatus string

const (
	VerificationNone           VerificationStatus = "none"
	VerificationPendingAddress VerificationStatus = "verified_pending_address"
	VerificationAddressChange  VerificationStatus = "address_change_requested"
	VerificationApproved       VerificationStatus = "approved"
	VerificationCancelled      VerificationStatus = "cancelled"
)

// Terminal reports whether no further inbound event may change the status.
func (v VerificationStatus) Terminal() bool {
	return v == VerificationApproved || v == VerificationCancelled
}

var ErrNotFound = errors.New("order not found")

// Item is a single purchased line item.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Order represents one commerce transaction, keyed by the external system's
// canonical order id.
type Order struct {
	ID                 string             `json:"orderId"`
	OrderNumber        string             `json:"orderNumber"`
	TotalPrice         string             `json:"totalPrice"`
	CustomerName       string             `json:"customerName"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone"`
	PhoneNormalized    string             `json:"phoneNormalized"`
	Status             Status             `json:"status"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	WhatsappSent       bool               `json:"whatsappSent"`
	Address1           string             `json:"address1"`
	City               string             `json:"city"`
	State              string             `json:"state"`
	Zip                string             `json:"zip"`
	Items              []Item             `json:"items"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
}

// AddressLine renders the shipping address the way confirmation templates
// expect it: "address1, city, state".
func (o *Order) AddressLine() string {
	return o.Address1 + ", " + o.City + ", " + o.State
}
