package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/cart"
	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/session"
)

// Geocoder resolves coordinates to a display address, best-effort.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// CartHandler owns the customer cart and the checkout that turns it into an
// order.
type CartHandler struct {
	Cart     *cart.Cart
	API      *orderapi.Client
	Session  *session.Session
	Geocoder Geocoder
	Producer EventPublisher
}

func (h *CartHandler) GetCart(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Cart.Items(),
		"total": h.Cart.Total(),
	})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	var item models.CartItem
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if item.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "item id is required")
	}
	h.Cart.Add(item)
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Cart.Items(),
		"total": h.Cart.Total(),
	})
}

func (h *CartHandler) SetQuantity(c echo.Context) error {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	h.Cart.SetQuantity(c.Param("id"), req.Quantity)
	return c.JSON(http.StatusOK, echo.Map{
		"items": h.Cart.Items(),
		"total": h.Cart.Total(),
	})
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	h.Cart.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	h.Cart.Clear()
	return c.NoContent(http.StatusNoContent)
}

type checkoutRequest struct {
	UserName      string      `json:"userName"`
	UserPhone     string      `json:"userPhone"`
	BlockNumber   string      `json:"blockNumber"`
	RoomNumber    string      `json:"roomNumber"`
	PaymentMethod string      `json:"paymentMethod"`
	ReceiptURL    string      `json:"receiptUrl"`
	Coordinates   *[2]float64 `json:"coordinates"` // lng, lat
	Address       string      `json:"address"`
}

// Checkout validates locally, fills the delivery address from the geocoder
// when only coordinates came in, creates the order upstream and clears the
// cart on success. A validation failure never reaches the backend.
func (h *CartHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart_checkout")

	var req checkoutRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("checkout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if user, ok := h.Session.User(); ok {
		if req.UserName == "" {
			req.UserName = user.Name
		}
		if req.UserPhone == "" {
			req.UserPhone = user.Phone
		}
	}

	co := cart.Checkout{
		UserName:      req.UserName,
		UserPhone:     req.UserPhone,
		BlockNumber:   req.BlockNumber,
		RoomNumber:    req.RoomNumber,
		PaymentMethod: req.PaymentMethod,
		ReceiptURL:    req.ReceiptURL,
	}
	if req.Coordinates != nil {
		addr := req.Address
		if addr == "" && h.Geocoder != nil {
			lng, lat := req.Coordinates[0], req.Coordinates[1]
			if resolved, err := h.Geocoder.Reverse(ctx, lat, lng); err == nil {
				addr = resolved
			} else {
				l.Warn("reverse_geocode_failed", "error", err)
			}
		}
		co.DeliveryAddress = &models.DeliveryAddress{
			Coordinates: *req.Coordinates,
			Address:     addr,
		}
	}

	payload, err := co.BuildOrder(h.Cart)
	if err != nil {
		var ve *cart.ValidationError
		if errors.As(err, &ve) {
			l.Warn("checkout_blocked", "status", 400, "field", ve.Field, "reason", ve.Message)
			return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.API.CreateOrder(ctx, *payload)
	if err != nil {
		l.Error("checkout_failed", "status", 502, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, humanMessage(err))
	}

	h.Cart.Clear()
	publishEvent(ctx, l, h.Producer, order.ID, map[string]any{
		"type":        "order_created",
		"orderId":     order.ID,
		"totalAmount": order.TotalAmount,
	})
	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount)
	return c.JSON(http.StatusCreated, order)
}
