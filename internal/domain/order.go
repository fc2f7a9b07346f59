package domain

import "time"

// OrderStatus tracks manual fulfillment. Only "pending" is ever written by the
// storefront; later transitions belong to the back office.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderCustomer is the contact block of an order.
type OrderCustomer struct {
	UID   string `json:"uid,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ShippingAddress is where a manual shipment goes.
type ShippingAddress struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Order is an immutable snapshot of a cart submitted for offline fulfillment.
type Order struct {
	ID              string          `json:"id"`
	Items           []LineItem      `json:"items"`
	Totals          Totals          `json:"totals"`
	Customer        OrderCustomer   `json:"customer"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Status          OrderStatus     `json:"status"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
