package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"printcheck/internal/model"
)

// UpstreamError is returned when the platform answers with status >= 400.
type UpstreamError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status: %d, body: %s", e.Method, e.Path, e.Status, string(e.Body))
}

type PlatformClient struct {
	baseURL    string
	merchantID string
	token      string
	client     *http.Client
}

func NewPlatformClient(baseURL, merchantID, token string, timeout time.Duration) *PlatformClient {
	return &PlatformClient{
		baseURL:    baseURL,
		merchantID: merchantID,
		token:      token,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *PlatformClient) CreateItem(ctx context.Context, item model.Item) (*model.Item, error) {
	var res model.Item
	if err := c.do(ctx, http.MethodPost, "/items", nil, item, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PlatformClient) CreateOrder(ctx context.Context, order model.Order) (*model.Order, error) {
	var res model.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, order, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PlatformClient) AddLineItem(ctx context.Context, orderID, itemID string) (*model.LineItem, error) {
	body := model.LineItem{Item: &model.Ref{ID: itemID}}
	var res model.LineItem
	path := "/orders/" + url.PathEscape(orderID) + "/line_items"
	if err := c.do(ctx, http.MethodPost, path, nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PlatformClient) UpdateOrderState(ctx context.Context, orderID, state string) (*model.Order, error) {
	var res model.Order
	path := "/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodPost, path, nil, model.Order{State: state}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetOrder fetches an order with its line items expanded. The raw platform
// document is returned alongside the decoded order.
func (c *PlatformClient) GetOrder(ctx context.Context, orderID string) (*model.Order, json.RawMessage, error) {
	var raw json.RawMessage
	query := url.Values{"expand": {"lineItems"}}
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), query, nil, &raw); err != nil {
		return nil, nil, err
	}

	var doc struct {
		model.Order
		LineItems json.RawMessage `json:"lineItems"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, raw, fmt.Errorf("decode order: %w", err)
	}
	order := doc.Order
	if err := DecodeCollection(doc.LineItems, &order.LineItems); err != nil {
		return nil, raw, fmt.Errorf("decode line items: %w", err)
	}
	return &order, raw, nil
}

func (c *PlatformClient) ListOrders(ctx context.Context, limit int) ([]model.Order, error) {
	var raw json.RawMessage
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.do(ctx, http.MethodGet, "/orders", query, nil, &raw); err != nil {
		return nil, err
	}
	var orders []model.Order
	if err := DecodeCollection(raw, &orders); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return orders, nil
}

func (c *PlatformClient) ListDevices(ctx context.Context) ([]model.Device, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/devices", nil, nil, &raw); err != nil {
		return nil, err
	}
	var devices []model.Device
	if err := DecodeCollection(raw, &devices); err != nil {
		return nil, fmt.Errorf("decode devices: %w", err)
	}
	return devices, nil
}

// CreatePrintEvent asks the platform to print the order. An empty deviceID
// leaves the choice to the merchant's firing device.
func (c *PlatformClient) CreatePrintEvent(ctx context.Context, orderID, deviceID string) (*model.PrintEvent, error) {
	body := model.PrintEvent{OrderRef: &model.Ref{ID: orderID}}
	if deviceID != "" {
		body.DeviceRef = &model.Ref{ID: deviceID}
	}
	var res model.PrintEvent
	if err := c.do(ctx, http.MethodPost, "/print_event", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PlatformClient) GetPrintEvent(ctx context.Context, eventID string) (*model.PrintEvent, error) {
	var res model.PrintEvent
	if err := c.do(ctx, http.MethodGet, "/print_event/"+url.PathEscape(eventID), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *PlatformClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := fmt.Sprintf("%s/v3/merchants/%s%s", c.baseURL, url.PathEscape(c.merchantID), path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	slog.Debug("platform call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode >= http.StatusBadRequest {
		return &UpstreamError{Method: method, Path: path, Status: resp.StatusCode, Body: data}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
