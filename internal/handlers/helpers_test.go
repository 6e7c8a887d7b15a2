package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/session"
)

type fakeStoreAPI struct {
	mu       sync.Mutex
	orders   []models.Order
	listErr  error
	updates  []string // "id->status"
	updErr   error
	pushCB   func(models.Order)
	unsubbed int
}

func (f *fakeStoreAPI) ListOrders(_ context.Context, filters orderapi.ListFilters) (*orderapi.OrderPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Order, len(f.orders))
	copy(out, f.orders)
	return &orderapi.OrderPage{Orders: out, Total: len(out), Page: 1, Pages: 1}, nil
}

func (f *fakeStoreAPI) UpdateOrderStatus(_ context.Context, id, status string) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updErr != nil {
		return nil, f.updErr
	}
	f.updates = append(f.updates, id+"->"+status)
	return &models.Order{ID: id, Status: status}, nil
}

func (f *fakeStoreAPI) SubscribeUpdates(_ context.Context, cb func(models.Order)) func() {
	f.mu.Lock()
	f.pushCB = cb
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubbed++
		f.mu.Unlock()
	}
}

func (f *fakeStoreAPI) recordedUpdates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.updates))
	copy(out, f.updates)
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (f *fakePublisher) PublishEvent(_ context.Context, key string, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _ := event.(map[string]any)
	f.events = append(f.events, m)
	return nil
}

func (f *fakePublisher) published() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, len(f.events))
	copy(out, f.events)
	return out
}

func newTestContext(t *testing.T, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	e := echo.New()
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func newTestSession(t *testing.T) *session.Session {
	t.Helper()

	store, err := session.OpenStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return session.New(store)
}

func mustStatus(t *testing.T, err error, want int) {
	t.Helper()

	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	require.Equal(t, want, he.Code)
}
