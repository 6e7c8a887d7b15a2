package orderstore

import (
	"context"
	"sync"
	"time"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// API is the slice of the transport client the store consumes.
type API interface {
	ListOrders(ctx context.Context, filters orderapi.ListFilters) (*orderapi.OrderPage, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error)
	SubscribeUpdates(ctx context.Context, cb func(models.Order)) func()
}

// Store owns the client-side order collection and its derived per-status
// counts. Stats always reflect the current result set: narrow the filter and
// the counts narrow with it.
type Store struct {
	api API

	mu       sync.Mutex
	orders   []models.Order
	stats    map[string]int
	loading  bool
	lastErr  string
	fetchSeq uint64

	closeOnce   sync.Once
	unsubscribe func()
}

func New(api API) *Store {
	return &Store{
		api:   api,
		stats: emptyStats(),
	}
}

func emptyStats() map[string]int {
	stats := make(map[string]int, len(workflow.Flow))
	for _, s := range workflow.Flow {
		stats[s] = 0
	}
	return stats
}

// Start opens the push subscription. Stop closes it; both are safe to call
// once each, Stop more than once.
func (s *Store) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.api.SubscribeUpdates(ctx, s.applyUpdate)
}

func (s *Store) Stop() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsub := s.unsubscribe
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	})
}

// FetchOrders replaces the collection with the backend's answer and
// recomputes stats over it. Responses are tagged with a sequence number;
// an older response arriving after a newer one is dropped on the floor, so
// rapid filter changes cannot resurrect stale state. It never returns an
// error: failures land in Err for the dashboards to display.
func (s *Store) FetchOrders(ctx context.Context, filters orderapi.ListFilters) {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.mu.Unlock()

	page, err := s.api.ListOrders(ctx, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.fetchSeq {
		// a newer fetch is in flight or already applied
		return
	}
	s.loading = false
	if err != nil {
		s.lastErr = humanError(err)
		logging.FromContext(ctx).Error("fetch_orders_failed", "error", err)
		return
	}
	s.orders = page.Orders
	s.stats = computeStats(page.Orders)
	s.lastErr = ""
}

func computeStats(orders []models.Order) map[string]int {
	stats := emptyStats()
	for _, o := range orders {
		stats[workflow.Bucket(o.Status)]++
	}
	return stats
}

// UpdateResult is what the dashboards get back: never an error value, the
// store's public surface does not throw.
type UpdateResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// UpdateOrderStatus asks the server first and patches local state only after
// it confirmed the transition. On failure local state is untouched, so there
// is nothing to roll back.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID, newStatus string) UpdateResult {
	if _, err := s.api.UpdateOrderStatus(ctx, orderID, newStatus); err != nil {
		logging.FromContext(ctx).Warn("update_order_status_failed", "order_id", orderID, "error", err)
		return UpdateResult{Success: false, Error: humanError(err)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID != orderID {
			continue
		}
		s.shiftStats(s.orders[i].Status, newStatus)
		s.orders[i].Status = newStatus
		s.orders[i].UpdatedAt = time.Now().UTC()
		break
	}
	return UpdateResult{Success: true}
}

// shiftStats applies the old→new delta rule: decrement floored at zero,
// then increment. Callers hold mu.
func (s *Store) shiftStats(oldStatus, newStatus string) {
	oldBucket := workflow.Bucket(oldStatus)
	if s.stats[oldBucket] > 0 {
		s.stats[oldBucket]--
	}
	s.stats[workflow.Bucket(newStatus)]++
}

// applyUpdate merges a pushed order into the collection. Updates for ids we
// do not hold are ignored; stats are adjusted incrementally, not recomputed.
func (s *Store) applyUpdate(updated models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID != updated.ID {
			continue
		}
		s.shiftStats(s.orders[i].Status, updated.Status)
		s.orders[i] = updated
		return
	}
}

// Orders returns a copy of the current collection.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Order, len(s.orders))
	copy(out, s.orders)
	return out
}

// Stats returns a copy of the per-status counts over the current result set.
func (s *Store) Stats() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.stats))
	for k, v := range s.stats {
		out[k] = v
	}
	return out
}

func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the last fetch failure as a display string, empty after a
// successful fetch.
func (s *Store) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func humanError(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "failed to fetch orders"
}
