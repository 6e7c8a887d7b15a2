package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// lookupTimeout bounds one reverse lookup; the rest of checkout never waits
// on it.
const lookupTimeout = 8 * time.Second

// Client resolves coordinates to a display address through a Nominatim-style
// endpoint. At most one lookup is in flight: starting a new one cancels the
// previous one, newest wins.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu         sync.Mutex
	gen        uint64
	cancelPrev context.CancelFunc
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Reverse returns the address text for lat/lon, or an error when the lookup
// failed, timed out, or was superseded by a newer call.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)

	c.mu.Lock()
	if c.cancelPrev != nil {
		c.cancelPrev()
	}
	c.gen++
	myGen := c.gen
	c.cancelPrev = cancel
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		if c.gen == myGen {
			c.cancelPrev = nil
		}
		c.mu.Unlock()
		cancel()
	}()

	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lon))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding failed: status %d", resp.StatusCode)
	}

	var result struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return result.DisplayName, nil
}
