package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mesobkitchen/orderdesk/internal/models"
	"github.com/mesobkitchen/orderdesk/internal/workflow"
)

// TokenStore is the slice of the session the transport needs: read the
// bearer token for outgoing requests, clear it when the backend says 401.
// Redirecting after that is the session owner's business, not ours.
type TokenStore interface {
	Token() string
	ClearToken()
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
}

func NewClient(baseURL string, tokens TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		tokens: tokens,
	}
}

// ListFilters mirror the query parameters the backend accepts on GET /order.
// Zero values are omitted from the request.
type ListFilters struct {
	Status     string
	DateFilter string
	Search     string
	Page       int
	Limit      int
}

func (f ListFilters) query() url.Values {
	params := url.Values{}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.DateFilter != "" {
		params.Set("dateFilter", f.DateFilter)
	}
	if f.Search != "" {
		params.Set("search", f.Search)
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		params.Set("limit", strconv.Itoa(f.Limit))
	}
	return params
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Pages  int            `json:"pages"`
}

// wireOrder tolerates the two historical identifier field names. Everything
// downstream sees only the canonical one.
type wireOrder struct {
	ID      string `json:"id"`
	MongoID string `json:"_id"`
	models.Order
}

func (w wireOrder) normalize() models.Order {
	o := w.Order
	o.ID = w.ID
	if o.ID == "" {
		o.ID = w.MongoID
	}
	if o.Status == "" {
		o.Status = workflow.StatusPending
	}
	return o
}

func (c *Client) ListOrders(ctx context.Context, filters ListFilters) (*OrderPage, error) {
	q := filters.query().Encode()
	path := "/order"
	if q != "" {
		path += "?" + q
	}
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeOrderPage(raw)
}

// decodeOrderPage accepts either a bare array of orders or the wrapped
// {orders,total,page,pages} object.
func decodeOrderPage(raw []byte) (*OrderPage, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var wired []wireOrder
		if err := json.Unmarshal(trimmed, &wired); err != nil {
			return nil, fmt.Errorf("decode orders: %w", err)
		}
		page := &OrderPage{Orders: normalizeAll(wired)}
		page.Total = len(page.Orders)
		page.Page, page.Pages = 1, 1
		return page, nil
	}

	var wired struct {
		Orders []wireOrder `json:"orders"`
		Total  int         `json:"total"`
		Page   int         `json:"page"`
		Pages  int         `json:"pages"`
	}
	if err := json.Unmarshal(trimmed, &wired); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	page := &OrderPage{
		Orders: normalizeAll(wired.Orders),
		Total:  wired.Total,
		Page:   wired.Page,
		Pages:  wired.Pages,
	}
	if page.Total == 0 {
		page.Total = len(page.Orders)
	}
	return page, nil
}

func normalizeAll(wired []wireOrder) []models.Order {
	orders := make([]models.Order, 0, len(wired))
	for _, w := range wired {
		orders = append(orders, w.normalize())
	}
	return orders
}

func (c *Client) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	raw, err := c.do(ctx, http.MethodGet, "/order/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	var w wireOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	o := w.normalize()
	return &o, nil
}

// CreateOrderRequest is the checkout payload. Validation happens in the cart
// package before this ever leaves the process; the server is still the
// authority and assigns id, status and createdAt.
type CreateOrderRequest struct {
	UserName        string                  `json:"userName"`
	UserPhone       string                  `json:"userPhone"`
	Items           []models.OrderItem      `json:"items"`
	TotalAmount     float64                 `json:"totalAmount"`
	BlockNumber     string                  `json:"blockNumber"`
	RoomNumber      string                  `json:"roomNumber"`
	DeliveryAddress *models.DeliveryAddress `json:"deliveryAddress,omitempty"`
	PaymentMethod   string                  `json:"paymentMethod"`
	ReceiptURL      string                  `json:"receiptUrl,omitempty"`
}

func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	raw, err := c.do(ctx, http.MethodPost, "/order", req)
	if err != nil {
		return nil, err
	}
	var w wireOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	o := w.normalize()
	return &o, nil
}

// UpdateOrderStatus sends only {status}. The caller is expected to request
// legal forward transitions; the server rejects illegal ones regardless.
func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*models.Order, error) {
	body := map[string]string{"status": status}
	raw, err := c.do(ctx, http.MethodPut, "/order/"+url.PathEscape(id), body)
	if err != nil {
		return nil, err
	}
	var w wireOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	o := w.normalize()
	return &o, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/order/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) OrderStats(ctx context.Context) (map[string]int, error) {
	raw, err := c.do(ctx, http.MethodGet, "/order/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats map[string]int
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	return stats, nil
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, name, pwd string) (*LoginResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/login", map[string]string{"name": name, "pwd": pwd})
	if err != nil {
		return nil, err
	}
	var res LoginResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, name, phone, pwd string) error {
	_, err := c.do(ctx, http.MethodPost, "/register", map[string]string{
		"name":  name,
		"phone": phone,
		"pwd":   pwd,
	})
	return err
}

// ValidateToken checks the stored token against the backend. It reports
// only valid/invalid; a transport failure is an error distinct from both.
func (c *Client) ValidateToken(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/auth/validate", nil)
	return err
}

// ListUsers handles the backend's inconsistent /user shapes: a bare array,
// {users: [...]}, or the wrapped double-encoded {"All Users": "[...]"}.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	raw, err := c.do(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, err
	}
	return decodeUsers(raw)
}

func decodeUsers(raw []byte) ([]models.User, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var users []models.User
		if err := json.Unmarshal(trimmed, &users); err != nil {
			return nil, fmt.Errorf("decode users: %w", err)
		}
		return users, nil
	}

	var wrapped struct {
		Users    []models.User `json:"users"`
		AllUsers string        `json:"All Users"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if wrapped.Users != nil {
		return wrapped.Users, nil
	}
	if wrapped.AllUsers != "" {
		var users []models.User
		if err := json.Unmarshal([]byte(wrapped.AllUsers), &users); err != nil {
			return nil, fmt.Errorf("decode wrapped users: %w", err)
		}
		return users, nil
	}
	return nil, nil
}

// do executes one request and reduces every failure mode to the error
// taxonomy. A 401 clears the stored token as a side effect.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: "read " + path, Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
		c.tokens.ClearToken()
	}
	return nil, newHTTPError(resp.StatusCode, raw)
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{Status: status, Message: http.StatusText(status)}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		he.Data = body
		if msg, ok := body["message"].(string); ok && msg != "" {
			he.Message = msg
		} else if msg, ok := body["error"].(string); ok && msg != "" {
			he.Message = msg
		}
	}
	return he
}
