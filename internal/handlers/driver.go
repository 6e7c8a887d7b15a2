package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/orderstore"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// DriverHandler serves the delivery dashboard: only orders that are out for
// delivery, with "mark as delivered" as the single available action.
type DriverHandler struct {
	Store    *orderstore.Store
	Producer EventPublisher
}

func (h *DriverHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	lang := langFromRequest(c)

	h.Store.FetchOrders(ctx, orderapi.ListFilters{Status: workflow.StatusOutForDelivery})
	if msg := h.Store.Err(); msg != "" {
		return c.JSON(http.StatusOK, echo.Map{"error": msg, "orders": []OrderCard{}})
	}

	// the backend may ignore the filter or answer with legacy rows, so
	// filter again locally
	onTruck := make([]models.Order, 0)
	for _, o := range h.Store.Orders() {
		if workflow.Normalize(o.Status) == workflow.StatusOutForDelivery {
			onTruck = append(onTruck, o)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": buildCards(onTruck, lang),
		"stats":  h.Store.Stats(),
	})
}

// Deliver is two-phase: the first call answers with a confirmation prompt,
// the caller repeats it with confirm=true to actually advance the order.
func (h *DriverHandler) Deliver(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "driver_deliver")

	id := c.Param("id")
	var target models.Order
	found := false
	for _, o := range h.Store.Orders() {
		if o.ID == id {
			target, found = o, true
			break
		}
	}
	if !found {
		l.Warn("deliver_failed", "status", 404, "order_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	next, ok := workflow.Next(target.Status)
	if !ok || next != workflow.StatusDelivered {
		l.Warn("deliver_failed", "status", 409, "order_id", id, "current", target.Status)
		return echo.NewHTTPError(http.StatusConflict, "order is not out for delivery")
	}

	if c.QueryParam("confirm") != "true" {
		return c.JSON(http.StatusOK, echo.Map{
			"confirmRequired": true,
			"orderId":         id,
			"nextStatus":      next,
		})
	}

	res := h.Store.UpdateOrderStatus(ctx, id, next)
	if !res.Success {
		return c.JSON(http.StatusBadGateway, res)
	}

	publishEvent(ctx, l, h.Producer, id, map[string]any{
		"type":    "order_delivered",
		"orderId": id,
		"from":    target.Status,
		"to":      next,
	})
	l.Info("deliver_success", "order_id", id)
	return c.JSON(http.StatusOK, res)
}
