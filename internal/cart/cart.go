package cart

import (
	"fmt"
	"sync"

	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
)

// ValidationError is a client-side check failure. It never leaves the
// process; a checkout that fails validation does not contact the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Cart holds the client-only cart items between "add to cart" and checkout.
type Cart struct {
	mu    sync.Mutex
	items []models.CartItem
}

func New() *Cart {
	return &Cart{}
}

// Add merges by item id: adding the same item again bumps its quantity.
func (c *Cart) Add(item models.CartItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// SetQuantity sets an item's quantity; zero or less removes it.
func (c *Cart) SetQuantity(id string, quantity int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if quantity < 1 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		} else {
			c.items[i].Quantity = quantity
		}
		return
	}
}

func (c *Cart) Remove(id string) {
	c.SetQuantity(id, 0)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
}

func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.CartItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, it := range c.items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Checkout carries the delivery and payment details collected from the
// customer before the cart becomes an order.
type Checkout struct {
	UserName        string
	UserPhone       string
	BlockNumber     string
	RoomNumber      string
	PaymentMethod   string
	ReceiptURL      string
	DeliveryAddress *models.DeliveryAddress
}

// BuildOrder validates the checkout and unions the cart into a create-order
// payload. TotalAmount is computed here, once, as Σ price×quantity.
func (co Checkout) BuildOrder(c *Cart) (*orderapi.CreateOrderRequest, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, &ValidationError{Field: "items", Message: "cart is empty"}
	}
	if co.UserName == "" {
		return nil, &ValidationError{Field: "userName", Message: "name is required"}
	}
	if co.UserPhone == "" {
		return nil, &ValidationError{Field: "userPhone", Message: "phone is required"}
	}
	if co.BlockNumber == "" {
		return nil, &ValidationError{Field: "blockNumber", Message: "block number is required"}
	}
	if co.RoomNumber == "" {
		return nil, &ValidationError{Field: "roomNumber", Message: "room number is required"}
	}

	switch co.PaymentMethod {
	case models.PaymentCash:
	case models.PaymentMobile:
		if co.ReceiptURL == "" {
			return nil, &ValidationError{Field: "receiptUrl", Message: "receipt is required for mobile payment"}
		}
	default:
		return nil, &ValidationError{Field: "paymentMethod", Message: "unknown payment method"}
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	var total float64
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, &ValidationError{Field: "items", Message: "quantity must be positive"}
		}
		if it.Price < 0 {
			return nil, &ValidationError{Field: "items", Message: "price must not be negative"}
		}
		orderItems = append(orderItems, models.OrderItem{
			ItemID:   it.ID,
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    it.Price,
		})
		total += it.Price * float64(it.Quantity)
	}

	return &orderapi.CreateOrderRequest{
		UserName:        co.UserName,
		UserPhone:       co.UserPhone,
		Items:           orderItems,
		TotalAmount:     total,
		BlockNumber:     co.BlockNumber,
		RoomNumber:      co.RoomNumber,
		DeliveryAddress: co.DeliveryAddress,
		PaymentMethod:   co.PaymentMethod,
		ReceiptURL:      co.ReceiptURL,
	}, nil
}
