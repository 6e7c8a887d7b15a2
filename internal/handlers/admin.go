package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// aggLimit is the wide fetch the KPI numbers are computed from. The admin
// aggregation is deliberately separate from the store's per-filter stats:
// the KPI cards describe the period, the table describes the page.
const aggLimit = 1000

// AdminHandler serves the paginated admin table plus period-wide KPIs. It
// talks to the transport directly; the shared store belongs to the
// waiter/driver boards.
type AdminHandler struct {
	API      *orderapi.Client
	Producer EventPublisher
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_dashboard")
	lang := langFromRequest(c)

	status := c.QueryParam("status")
	if status != "" && status != "all" && !workflow.Known(status) {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown status")
	}
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	pageFilters := orderapi.ListFilters{
		DateFilter: c.QueryParam("dateFilter"),
		Search:     c.QueryParam("search"),
		Page:       page,
		Limit:      limit,
	}
	if status != "" && status != "all" {
		pageFilters.Status = workflow.Normalize(status)
	}

	pageRes, err := h.API.ListOrders(ctx, pageFilters)
	if err != nil {
		l.Error("admin_fetch_failed", "error", err)
		return c.JSON(http.StatusOK, echo.Map{"error": humanMessage(err)})
	}

	// wide fetch for the KPI cards, always unfiltered by status/search
	aggRes, err := h.API.ListOrders(ctx, orderapi.ListFilters{
		DateFilter: pageFilters.DateFilter,
		Page:       1,
		Limit:      aggLimit,
	})
	if err != nil {
		l.Warn("admin_agg_failed", "error", err)
		aggRes = &orderapi.OrderPage{}
	}

	var revenue float64
	statusCounts := make(map[string]int, len(workflow.Flow))
	for _, s := range workflow.Flow {
		statusCounts[s] = 0
	}
	for _, o := range aggRes.Orders {
		bucket := workflow.Bucket(o.Status)
		statusCounts[bucket]++
		if bucket != workflow.StatusCancelled {
			revenue += o.TotalAmount
		}
	}

	usersCount := 0
	if users, err := h.API.ListUsers(ctx); err == nil {
		usersCount = len(users)
	} else {
		l.Warn("admin_users_failed", "error", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"orders": buildCards(pageRes.Orders, lang),
		"total":  pageRes.Total,
		"page":   pageRes.Page,
		"pages":  pageRes.Pages,
		"kpi": echo.Map{
			"totalOrders":  len(aggRes.Orders),
			"totalRevenue": revenue,
			"statusCounts": statusCounts,
			"usersCount":   usersCount,
		},
	})
}

func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_delete_order")

	id := c.Param("id")
	if err := h.API.DeleteOrder(ctx, id); err != nil {
		if errors.Is(err, orderapi.ErrNotFound) {
			l.Warn("delete_order_failed", "status", 404, "order_id", id)
			return echo.NewHTTPError(http.StatusNotFound, "order not found")
		}
		l.Error("delete_order_failed", "status", 502, "order_id", id, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, humanMessage(err))
	}

	publishEvent(ctx, l, h.Producer, id, map[string]any{
		"type":    "order_deleted",
		"orderId": id,
	})
	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}

func humanMessage(err error) string {
	var he *orderapi.HTTPError
	if errors.As(err, &he) {
		return he.Message
	}
	var ne *orderapi.NetworkError
	if errors.As(err, &ne) {
		return "backend unreachable"
	}
	return err.Error()
}
