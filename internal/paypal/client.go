// Package paypal implements a minimal client for the PayPal Orders v2 API:
// creating an order for a fixed-price purchase and capturing an approved
// order. Only the two calls the application needs are implemented.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upstarthq/idealab-backend/internal/config"
)

// ErrMissingCredentials indicates the client id or secret is not configured.
var ErrMissingCredentials = errors.New("paypal credentials are not configured")

// Client talks to the PayPal Orders v2 REST API using Basic auth with the
// configured client credentials. It is safe for concurrent use.
type Client struct {
	clientID string
	secret   string
	baseURL  string
	http     *http.Client
}

// NewClient builds a Client from configuration, failing fast when the
// credentials are absent.
func NewClient(cfg config.PayPalConfig) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, ErrMissingCredentials
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		clientID: cfg.ClientID,
		secret:   cfg.ClientSecret,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		http:     &http.Client{Timeout: timeout},
	}, nil
}

type amount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnit struct {
	Amount amount `json:"amount"`
}

type createOrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []purchaseUnit `json:"purchase_units"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// FormatAmount renders a price in cents as the decimal string PayPal expects,
// e.g. 2900 -> "29.00".
func FormatAmount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// CreateOrder creates a CAPTURE-intent order for the given price and returns
// the provider order id. The caller hands the id to the frontend for buyer
// approval before capture.
func (c *Client) CreateOrder(ctx context.Context, cents int, currency string) (string, error) {
	if cents <= 0 {
		return "", errors.New("order amount must be positive")
	}
	body, err := json.Marshal(createOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnit{{
			Amount: amount{CurrencyCode: currency, Value: FormatAmount(cents)},
		}},
	})
	if err != nil {
		return "", err
	}

	respBody, err := c.post(ctx, "/v2/checkout/orders", body)
	if err != nil {
		return "", err
	}

	var order orderResponse
	if err := json.Unmarshal(respBody, &order); err != nil {
		return "", fmt.Errorf("paypal order decode: %w", err)
	}
	if order.ID == "" {
		return "", errors.New("paypal order response missing id")
	}
	return order.ID, nil
}

// CaptureOrder captures an approved order and returns the provider's raw
// capture receipt. The receipt is persisted verbatim so idempotent replays
// can serve the original response.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) ([]byte, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errors.New("order id must not be empty")
	}
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", orderID)
	return c.post(ctx, path, []byte("{}"))
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("paypal api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}
