package orderapi

import (
	"bufio"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mesobkitchen/orderdesk/internal/logging"
	"github.com/mesobkitchen/orderdesk/internal/models"
)

// Reconnect policy for the push channel: exponential backoff with jitter,
// a hard cap on the delay and on consecutive failed attempts. A successful
// connect resets the attempt counter.
const (
	reconnectBase        = time.Second
	reconnectMax         = 30 * time.Second
	reconnectJitter      = 0.2
	reconnectMaxAttempts = 10
)

// SubscribeUpdates opens the /order/updates stream and invokes cb for every
// pushed order. The returned function closes the channel and is idempotent;
// cancelling ctx closes it too.
func (c *Client) SubscribeUpdates(ctx context.Context, cb func(models.Order)) func() {
	ctx, cancel := context.WithCancel(ctx)
	go c.streamLoop(ctx, cb)

	var once sync.Once
	return func() {
		once.Do(cancel)
	}
}

func (c *Client) streamLoop(ctx context.Context, cb func(models.Order)) {
	l := logging.FromContext(ctx).With("component", "order_updates")

	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		err := c.streamOnce(ctx, cb, func() { attempts = 0 })
		if ctx.Err() != nil {
			return
		}

		attempts++
		if attempts >= reconnectMaxAttempts {
			l.Error("push_channel_gave_up", "attempts", attempts, "error", err)
			return
		}

		delay := backoffDelay(attempts)
		l.Warn("push_channel_reconnect", "attempt", attempts, "delay", delay.String(), "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func backoffDelay(attempt int) time.Duration {
	d := reconnectBase << (attempt - 1)
	if d > reconnectMax || d <= 0 {
		d = reconnectMax
	}
	jitter := 1 + reconnectJitter*(2*rand.Float64()-1)
	return time.Duration(float64(d) * jitter)
}

// streamOnce holds one SSE connection open until it breaks. onConnect fires
// after the stream is established so the caller can reset its backoff.
func (c *Client) streamOnce(ctx context.Context, cb func(models.Order), onConnect func()) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/order/updates", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	// The shared client has a request timeout that would kill a long-lived
	// stream; use the transport directly.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return &NetworkError{Op: "GET /order/updates", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			c.tokens.ClearToken()
		}
		return newHTTPError(resp.StatusCode, nil)
	}
	onConnect()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if data.Len() > 0 {
				dispatchUpdate(ctx, data.String(), cb)
				data.Reset()
			}
			continue
		}
		if payload, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(payload, " "))
		}
		// event:/id:/retry: fields are irrelevant here, every message is an order
	}
	return scanner.Err()
}

func dispatchUpdate(ctx context.Context, payload string, cb func(models.Order)) {
	var w wireOrder
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		logging.FromContext(ctx).Warn("push_message_skipped", "error", err)
		return
	}
	cb(w.normalize())
}
