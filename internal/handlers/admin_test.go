package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// adminBackend fakes the upstream REST API: a paged /order answer for the
// table, a wide one for the KPI fetch, and the infamous double-encoded /user.
func adminBackend(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/order":
			if r.URL.Query().Get("limit") == "1000" {
				_, _ = w.Write([]byte(`{"orders":[
					{"id":"a","status":"delivered","totalAmount":320},
					{"id":"b","status":"pending","totalAmount":100},
					{"id":"c","status":"cancelled","totalAmount":999}
				],"total":3,"page":1,"pages":1}`))
				return
			}
			_, _ = w.Write([]byte(`{"orders":[{"id":"a","status":"delivered","totalAmount":320}],"total":3,"page":1,"pages":3}`))
		case "/user":
			_, _ = w.Write([]byte(`{"All Users":"[{\"id\":\"1\"},{\"id\":\"2\"}]"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAdminDashboard_PageAndKPIAreSeparateAggregations(t *testing.T) {
	t.Parallel()

	srv := adminBackend(t)
	defer srv.Close()

	h := &AdminHandler{API: orderapi.NewClient(srv.URL, nil)}

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/admin?page=1&limit=1", nil)
	require.NoError(t, h.Dashboard(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["orders"].([]any), 1, "table shows the requested page")
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, float64(3), body["pages"])

	kpi := body["kpi"].(map[string]any)
	assert.Equal(t, float64(3), kpi["totalOrders"], "KPIs cover the wide fetch, not the page")
	assert.Equal(t, float64(420), kpi["totalRevenue"], "cancelled orders do not count as revenue")
	assert.Equal(t, float64(2), kpi["usersCount"])

	counts := kpi["statusCounts"].(map[string]any)
	assert.Equal(t, float64(1), counts[workflow.StatusDelivered])
	assert.Equal(t, float64(1), counts[workflow.StatusPending])
	assert.Equal(t, float64(1), counts[workflow.StatusCancelled])
}

func TestAdminDashboard_UnknownStatusFilterRejected(t *testing.T) {
	t.Parallel()

	h := &AdminHandler{API: orderapi.NewClient("http://backend.invalid", nil)}

	c, _ := newTestContext(t, http.MethodGet, "/api/v1/admin?status=weird", nil)
	mustStatus(t, h.Dashboard(c), http.StatusBadRequest)
}

func TestAdminDeleteOrder(t *testing.T) {
	t.Parallel()

	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deleted = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pub := &fakePublisher{}
	h := &AdminHandler{API: orderapi.NewClient(srv.URL, nil), Producer: pub}

	c, rec := newTestContext(t, http.MethodDelete, "/api/v1/admin/orders/x1", nil)
	c.SetParamNames("id")
	c.SetParamValues("x1")
	require.NoError(t, h.DeleteOrder(c))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/order/x1", deleted)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, "order_deleted", events[0]["type"])
}

func TestAdminDeleteOrder_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	h := &AdminHandler{API: orderapi.NewClient(srv.URL, nil)}

	c, _ := newTestContext(t, http.MethodDelete, "/api/v1/admin/orders/ghost", nil)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	mustStatus(t, h.DeleteOrder(c), http.StatusNotFound)
}
