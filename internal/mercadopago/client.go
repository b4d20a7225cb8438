// Package mercadopago is a minimal client for the Mercado Pago payments API.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Domenick1991/ridepay/config"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(cfg config.MercadoPagoConfig, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an access token is available.
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

// CreatePayment submits a charge. The provider executes a given idempotency
// key at most once and replays the first answer for repeats.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest, idempotencyKey string) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/v1/payments", bytes.NewReader(body), idempotencyKey)
	if err != nil {
		return nil, err
	}
	return decodePayment(raw)
}

func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, "")
	if err != nil {
		return nil, err
	}
	return decodePayment(raw)
}

// RefundPayment issues a full refund of paymentID.
func (c *Client) RefundPayment(ctx context.Context, paymentID, idempotencyKey string) (*Refund, error) {
	raw, err := c.do(ctx, http.MethodPost, "/v1/payments/"+url.PathEscape(paymentID)+"/refunds", nil, idempotencyKey)
	if err != nil {
		return nil, err
	}

	var refund Refund
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &refund); err != nil {
			return nil, fmt.Errorf("failed to decode refund: %w", err)
		}
	}
	refund.Raw = raw
	return &refund, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, idempotencyKey string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrMissingAccessToken
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago request %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read mercadopago response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func decodePayment(raw []byte) (*Payment, error) {
	var p Payment
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode payment: %w", err)
	}
	p.Raw = raw
	return &p, nil
}
