package orderstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/orderapi"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

type fakeAPI struct {
	mu       sync.Mutex
	listFn   func(filters orderapi.ListFilters) (*orderapi.OrderPage, error)
	updateFn func(id, status string) (*models.Order, error)

	pushCB     func(models.Order)
	unsubCalls int
}

func (f *fakeAPI) ListOrders(_ context.Context, filters orderapi.ListFilters) (*orderapi.OrderPage, error) {
	return f.listFn(filters)
}

func (f *fakeAPI) UpdateOrderStatus(_ context.Context, id, status string) (*models.Order, error) {
	return f.updateFn(id, status)
}

func (f *fakeAPI) SubscribeUpdates(_ context.Context, cb func(models.Order)) func() {
	f.mu.Lock()
	f.pushCB = cb
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.unsubCalls++
		f.mu.Unlock()
	}
}

func pageOf(orders ...models.Order) *orderapi.OrderPage {
	return &orderapi.OrderPage{Orders: orders, Total: len(orders), Page: 1, Pages: 1}
}

func TestFetchOrders_StatsMatchResultSet(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(
				models.Order{ID: "a", Status: workflow.StatusPending},
				models.Order{ID: "b", Status: workflow.StatusPending},
			), nil
		},
	}
	s := New(api)

	s.FetchOrders(context.Background(), orderapi.ListFilters{Status: workflow.StatusPending})

	stats := s.Stats()
	assert.Equal(t, 2, stats[workflow.StatusPending])
	for _, status := range workflow.Flow {
		if status != workflow.StatusPending {
			assert.Zero(t, stats[status], "bucket %q", status)
		}
	}
	assert.Empty(t, s.Err())
	assert.False(t, s.Loading())
}

func TestFetchOrders_UnknownStatusCountsAsPending(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(
				models.Order{ID: "a", Status: "surprise"},
				models.Order{ID: "b", Status: workflow.StatusOnTruck},
			), nil
		},
	}
	s := New(api)

	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	stats := s.Stats()
	assert.Equal(t, 1, stats[workflow.StatusPending])
	assert.Equal(t, 1, stats[workflow.StatusOutForDelivery])
}

func TestFetchOrders_FailureKeepsStateAndSetsErr(t *testing.T) {
	t.Parallel()

	calls := 0
	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			calls++
			if calls == 1 {
				return pageOf(models.Order{ID: "a", Status: workflow.StatusPending}), nil
			}
			return nil, errors.New("boom")
		},
	}
	s := New(api)

	s.FetchOrders(context.Background(), orderapi.ListFilters{})
	require.Empty(t, s.Err())

	s.FetchOrders(context.Background(), orderapi.ListFilters{})
	assert.NotEmpty(t, s.Err())
	assert.Len(t, s.Orders(), 1, "failed fetch must not clobber the collection")
	assert.False(t, s.Loading())
}

func TestFetchOrders_StaleResponseDiscarded(t *testing.T) {
	t.Parallel()

	slowStarted := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{}
	api.listFn = func(filters orderapi.ListFilters) (*orderapi.OrderPage, error) {
		if filters.Status == workflow.StatusPending {
			close(slowStarted)
			<-release
			return pageOf(models.Order{ID: "stale", Status: workflow.StatusPending}), nil
		}
		return pageOf(models.Order{ID: "fresh", Status: workflow.StatusConfirmed}), nil
	}
	s := New(api)

	done := make(chan struct{})
	go func() {
		s.FetchOrders(context.Background(), orderapi.ListFilters{Status: workflow.StatusPending})
		close(done)
	}()
	<-slowStarted

	s.FetchOrders(context.Background(), orderapi.ListFilters{Status: workflow.StatusConfirmed})

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slow fetch never returned")
	}

	orders := s.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, "fresh", orders[0].ID)
	assert.Equal(t, 1, s.Stats()[workflow.StatusConfirmed])
	assert.Zero(t, s.Stats()[workflow.StatusPending])
}

func TestUpdateOrderStatus_PatchesOrderAndShiftsStats(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(
				models.Order{ID: "x", Status: workflow.StatusPending},
				models.Order{ID: "y", Status: workflow.StatusPreparing},
			), nil
		},
		updateFn: func(id, status string) (*models.Order, error) {
			return &models.Order{ID: id, Status: status}, nil
		},
	}
	s := New(api)
	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	res := s.UpdateOrderStatus(context.Background(), "x", workflow.StatusConfirmed)
	require.True(t, res.Success)
	require.Empty(t, res.Error)

	var updated models.Order
	for _, o := range s.Orders() {
		if o.ID == "x" {
			updated = o
		}
	}
	assert.Equal(t, workflow.StatusConfirmed, updated.Status)

	stats := s.Stats()
	assert.Zero(t, stats[workflow.StatusPending])
	assert.Equal(t, 1, stats[workflow.StatusConfirmed])
	assert.Equal(t, 1, stats[workflow.StatusPreparing], "unrelated bucket must not move")
}

func TestUpdateOrderStatus_ServerRejectionLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(models.Order{ID: "x", Status: workflow.StatusPending}), nil
		},
		updateFn: func(id, status string) (*models.Order, error) {
			return nil, errors.New("illegal transition")
		},
	}
	s := New(api)
	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	res := s.UpdateOrderStatus(context.Background(), "x", workflow.StatusDelivered)
	require.False(t, res.Success)
	assert.NotEmpty(t, res.Error)

	assert.Equal(t, workflow.StatusPending, s.Orders()[0].Status)
	assert.Equal(t, 1, s.Stats()[workflow.StatusPending])
	assert.Zero(t, s.Stats()[workflow.StatusDelivered])
}

func TestUpdateOrderStatus_DeltaClampsAtZero(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(models.Order{ID: "x", Status: workflow.StatusPending}), nil
		},
		updateFn: func(id, status string) (*models.Order, error) {
			return &models.Order{ID: id, Status: status}, nil
		},
	}
	s := New(api)
	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	// two updates in a row against the same order: the second decrement
	// hits an already-empty bucket and must clamp
	require.True(t, s.UpdateOrderStatus(context.Background(), "x", workflow.StatusConfirmed).Success)
	require.True(t, s.UpdateOrderStatus(context.Background(), "x", workflow.StatusPreparing).Success)

	stats := s.Stats()
	assert.Zero(t, stats[workflow.StatusPending])
	assert.Zero(t, stats[workflow.StatusConfirmed])
	assert.Equal(t, 1, stats[workflow.StatusPreparing])
}

func TestApplyUpdate_UnknownIDIsNoOp(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(models.Order{ID: "x", Status: workflow.StatusPending}), nil
		},
	}
	s := New(api)
	s.Start(context.Background())
	defer s.Stop()
	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	before := s.Stats()
	api.pushCB(models.Order{ID: "ghost", Status: workflow.StatusDelivered})

	assert.Equal(t, before, s.Stats())
	require.Len(t, s.Orders(), 1)
	assert.Equal(t, "x", s.Orders()[0].ID)
}

func TestApplyUpdate_KnownIDPatchesAndShiftsStats(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{
		listFn: func(orderapi.ListFilters) (*orderapi.OrderPage, error) {
			return pageOf(models.Order{ID: "x", Status: workflow.StatusPending}), nil
		},
	}
	s := New(api)
	s.Start(context.Background())
	defer s.Stop()
	s.FetchOrders(context.Background(), orderapi.ListFilters{})

	api.pushCB(models.Order{ID: "x", Status: workflow.StatusConfirmed, UserName: "Abel"})

	require.Len(t, s.Orders(), 1)
	assert.Equal(t, workflow.StatusConfirmed, s.Orders()[0].Status)
	assert.Equal(t, "Abel", s.Orders()[0].UserName, "push replaces the whole order")
	assert.Zero(t, s.Stats()[workflow.StatusPending])
	assert.Equal(t, 1, s.Stats()[workflow.StatusConfirmed])
}

func TestStop_Idempotent(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{}
	s := New(api)
	s.Start(context.Background())

	s.Stop()
	s.Stop()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.unsubCalls)
}
