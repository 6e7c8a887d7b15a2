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

// WaiterHandler serves the kitchen-side dashboard: every status as a tab,
// one forward action per card, plus the cancel branch.
type WaiterHandler struct {
	Store    *orderstore.Store
	Producer EventPublisher
}

// Dashboard returns the orders of one tab. tab=all (or absent) fetches the
// whole board; stats always describe the fetched set, not the full backlog.
func (h *WaiterHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	lang := langFromRequest(c)

	tab := c.QueryParam("tab")
	filters := orderapi.ListFilters{}
	if tab != "" && tab != "all" {
		if !workflow.Known(tab) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown tab")
		}
		filters.Status = workflow.Normalize(tab)
	}

	h.Store.FetchOrders(ctx, filters)
	if msg := h.Store.Err(); msg != "" {
		return c.JSON(http.StatusOK, echo.Map{"error": msg, "orders": []OrderCard{}})
	}

	orders := h.Store.Orders()
	if filters.Status != "" {
		kept := make([]models.Order, 0, len(orders))
		for _, o := range orders {
			if workflow.Bucket(o.Status) == filters.Status {
				kept = append(kept, o)
			}
		}
		orders = kept
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tabs":   workflow.Flow,
		"tab":    tab,
		"orders": buildCards(orders, lang),
		"stats":  h.Store.Stats(),
	})
}

// Advance moves an order one step along the chain, whatever its current
// status allows. Two-phase like the driver action.
func (h *WaiterHandler) Advance(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "waiter_advance")

	id := c.Param("id")
	order, found := h.findOrder(id)
	if !found {
		l.Warn("advance_failed", "status", 404, "order_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	next, ok := workflow.Next(order.Status)
	if !ok {
		l.Warn("advance_failed", "status", 409, "order_id", id, "current", order.Status)
		return echo.NewHTTPError(http.StatusConflict, "no transition available")
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
		"type":    "order_status_changed",
		"orderId": id,
		"from":    order.Status,
		"to":      next,
	})
	l.Info("advance_success", "order_id", id, "to", next)
	return c.JSON(http.StatusOK, res)
}

// Cancel takes the cancellation branch, reachable from any non-terminal
// status.
func (h *WaiterHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "waiter_cancel")

	id := c.Param("id")
	order, found := h.findOrder(id)
	if !found {
		l.Warn("cancel_failed", "status", 404, "order_id", id)
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if !workflow.CanCancel(order.Status) {
		l.Warn("cancel_failed", "status", 409, "order_id", id, "current", order.Status)
		return echo.NewHTTPError(http.StatusConflict, "order already finished")
	}

	if c.QueryParam("confirm") != "true" {
		return c.JSON(http.StatusOK, echo.Map{
			"confirmRequired": true,
			"orderId":         id,
			"nextStatus":      workflow.StatusCancelled,
		})
	}

	res := h.Store.UpdateOrderStatus(ctx, id, workflow.StatusCancelled)
	if !res.Success {
		return c.JSON(http.StatusBadGateway, res)
	}

	publishEvent(ctx, l, h.Producer, id, map[string]any{
		"type":    "order_cancelled",
		"orderId": id,
		"from":    order.Status,
	})
	l.Info("cancel_success", "order_id", id)
	return c.JSON(http.StatusOK, res)
}

func (h *WaiterHandler) findOrder(id string) (models.Order, bool) {
	for _, o := range h.Store.Orders() {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}
