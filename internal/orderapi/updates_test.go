package orderapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesobkitchen/orderdesk/internal/models"
)

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, e := range events {
			fmt.Fprintf(w, "data: %s\n\n", e)
			flusher.Flush()
		}
		// hold the stream open until the client goes away
		<-r.Context().Done()
	}))
}

func TestSubscribeUpdates_DeliversPushedOrders(t *testing.T) {
	t.Parallel()

	srv := sseServer(t,
		`{"_id":"o1","status":"confirmed"}`,
		`not json at all`,
		`{"id":"o2","status":"ready"}`,
	)
	defer srv.Close()

	got := make(chan models.Order, 4)
	unsub := NewClient(srv.URL, nil).SubscribeUpdates(context.Background(), func(o models.Order) {
		got <- o
	})
	defer unsub()

	first := waitOrder(t, got)
	assert.Equal(t, "o1", first.ID, "wire _id must be normalized")
	assert.Equal(t, "confirmed", first.Status)

	// the unparsable message is skipped, the stream survives
	second := waitOrder(t, got)
	assert.Equal(t, "o2", second.ID)
}

func TestSubscribeUpdates_UnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	srv := sseServer(t, `{"id":"o1","status":"pending"}`)
	defer srv.Close()

	got := make(chan models.Order, 1)
	unsub := NewClient(srv.URL, nil).SubscribeUpdates(context.Background(), func(o models.Order) {
		select {
		case got <- o:
		default:
		}
	})
	waitOrder(t, got)

	unsub()
	require.NotPanics(t, func() { unsub() })
}

func waitOrder(t *testing.T, ch <-chan models.Order) models.Order {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("no pushed order arrived")
		return models.Order{}
	}
}
