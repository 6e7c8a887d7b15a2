package models

import (
	"time"
)

// Order is the canonical shape an order has after the transport layer
// normalized it. ID is always the single canonical identifier, whichever
// field name the backend used on the wire.
type Order struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	UserName        string           `json:"userName"`
	UserPhone       string           `json:"userPhone"`
	Items           []OrderItem      `json:"items"`
	TotalAmount     float64          `json:"totalAmount"`
	BlockNumber     string           `json:"blockNumber"`
	RoomNumber      string           `json:"roomNumber"`
	DeliveryAddress *DeliveryAddress `json:"deliveryAddress,omitempty"`
	PaymentMethod   string           `json:"paymentMethod"`
	ReceiptURL      string           `json:"receiptUrl,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt,omitzero"`
}

type OrderItem struct {
	ItemID   string  `json:"itemId"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// DeliveryAddress is best-effort: coordinates come from the device
// geolocation, the text from a reverse geocode that may never finish.
type DeliveryAddress struct {
	Coordinates [2]float64 `json:"coordinates"` // lng, lat
	Address     string     `json:"address"`
}

type CartItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

const (
	RoleCustomer = "customer"
	RoleDriver   = "driver"
	RoleWaiter   = "waiter"
	RoleAdmin    = "admin"
)

const (
	PaymentCash   = "cash"
	PaymentMobile = "mobile"
)

// StateEntry is one row of the persisted client state store (token, user,
// last view), the stand-in for the browser's local storage.
type StateEntry struct {
	Key       string `gorm:"primaryKey"     json:"key"`
	Value     string `gorm:"not null"       json:"value"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`
}
