package event

import "strings"

// AddressInfo mirrors the shipping/default address block of commerce webhooks.
type AddressInfo struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	City     string `json:"city"`
	Province string `json:"province"`
	Zip      string `json:"zip"`
}

type CustomerInfo struct {
	FirstName      string       `json:"first_name"`
	LastName       string       `json:"last_name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	DefaultAddress *AddressInfo `json:"default_address"`
}

type LineItem struct {
	Title    string     `json:"title"`
	Quantity int        `json:"quantity"`
	Price    FlexString `json:"price"`
}

// OrderEvent is an order-created commerce webhook payload.
type OrderEvent struct {
	ID                  FlexString    `json:"id" validate:"required"`
	OrderNumber         FlexString    `json:"order_number" validate:"required"`
	TotalPrice          FlexString    `json:"total_price"`
	Currency            string        `json:"currency"`
	Email               string        `json:"email"`
	Phone               string        `json:"phone"`
	Gateway             string        `json:"gateway"`
	PaymentGatewayNames []string      `json:"payment_gateway_names"`
	CartToken           string        `json:"cart_token"`
	Customer            *CustomerInfo `json:"customer"`
	LineItems           []LineItem    `json:"line_items"`
	ShippingAddress     *AddressInfo  `json:"shipping_address"`
}

// IsCOD reports whether the order was placed with a cash-on-delivery gateway.
func (e *OrderEvent) IsCOD() bool {
	if strings.EqualFold(e.Gateway, "Cash on Delivery") || strings.EqualFold(e.Gateway, "COD") {
		return true
	}
	for _, g := range e.PaymentGatewayNames {
		if strings.EqualFold(g, "Cash on Delivery") || strings.EqualFold(g, "COD") {
			return true
		}
	}

	return false
}

// BestPhone picks the first available phone source: the explicit order phone,
// then the customer record, then the shipping address.
func (e *OrderEvent) BestPhone() string {
	if e.Phone != "" {
		return e.Phone
	}
	if e.Customer != nil {
		if e.Customer.Phone != "" {
			return e.Customer.Phone
		}
		if e.Customer.DefaultAddress != nil && e.Customer.DefaultAddress.Phone != "" {
			return e.Customer.DefaultAddress.Phone
		}
	}
	if e.ShippingAddress != nil {
		return e.ShippingAddress.Phone
	}

	return ""
}

// CustomerName assembles a display name from the customer record, falling
// back to the shipping address name.
func (e *OrderEvent) CustomerName() string {
	if e.Customer != nil {
		name := strings.TrimSpace(e.Customer.FirstName + " " + e.Customer.LastName)
		if name != "" {
			return name
		}
	}
	if e.ShippingAddress != nil {
		return e.ShippingAddress.Name
	}

	return ""
}

// BestEmail picks the order email, falling back to the customer record.
func (e *OrderEvent) BestEmail() string {
	if e.Email != "" {
		return e.Email
	}
	if e.Customer != nil {
		return e.Customer.Email
	}

	return ""
}

// CartEvent is a cart/checkout tick from the storefront.
type CartEvent struct {
	CartID      FlexString `json:"cart_id"`
	CartToken   string     `json:"cart_token"`
	LatestStage string     `json:"latest_stage"`
	PhoneNumber string     `json:"phone_number"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	TotalPrice  FlexString `json:"total_price"`
}

// BestPhone picks whichever phone field the cart payload carries.
func (e *CartEvent) BestPhone() string {
	if e.PhoneNumber != "" {
		return e.PhoneNumber
	}

	return e.Phone
}
