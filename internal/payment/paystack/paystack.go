// Package paystack implements payment.Gateway against the Paystack REST API.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/venturehub/internal/payment"
	"github.com/sakif/venturehub/internal/pricing"
)

// Config configures the client.
type Config struct {
	BaseURL   string
	SecretKey string
	Currency  string
	Timeout   time.Duration
}

// Client talks to Paystack.
type Client struct {
	http     *resty.Client
	currency string
}

var _ payment.Gateway = (*Client)(nil)

// envelope is the common Paystack response wrapper.
type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	Metadata        json.RawMessage `json:"metadata"`
	Customer        struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
}

// New builds a client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "NGN"
	}
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: http, currency: currency}
}

// Initialize starts a transaction and returns the checkout URL.
func (c *Client) Initialize(ctx context.Context, req payment.InitRequest) (*payment.Checkout, error) {
	currency := req.Currency
	if currency == "" {
		currency = c.currency
	}
	body := map[string]any{
		"email":        req.Email,
		"amount":       strconv.FormatInt(pricing.ToMinor(req.Amount), 10),
		"currency":     currency,
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var out envelope[payment.Checkout]
	var failure envelope[json.RawMessage]
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&out).
		SetError(&failure).
		Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("paystack: initialize: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("paystack: initialize: %s (status %d)", failure.Message, resp.StatusCode())
	}
	if !out.Status || out.Data.AuthorizationURL == "" {
		return nil, fmt.Errorf("paystack: initialize: %s", out.Message)
	}
	if out.Data.Reference == "" {
		out.Data.Reference = req.Reference
	}
	return &out.Data, nil
}

// Verify fetches the final state of a transaction.
func (c *Client) Verify(ctx context.Context, reference string) (*payment.Transaction, error) {
	var out envelope[verifyData]
	var failure envelope[json.RawMessage]
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		SetResult(&out).
		SetError(&failure).
		Get("/transaction/verify/{reference}")
	if err != nil {
		return nil, fmt.Errorf("paystack: verify %s: %w", reference, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("paystack: verify %s: %s (status %d)", reference, failure.Message, resp.StatusCode())
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack: verify %s: %s", reference, out.Message)
	}

	d := out.Data
	return &payment.Transaction{
		Reference:       d.Reference,
		Status:          d.Status,
		Amount:          d.Amount,
		Currency:        d.Currency,
		GatewayResponse: d.GatewayResponse,
		CustomerEmail:   d.Customer.Email,
		CustomerName:    strings.TrimSpace(d.Customer.FirstName + " " + d.Customer.LastName),
		Metadata:        normalizeMetadata(d.Metadata),
	}, nil
}

// normalizeMetadata unwraps metadata that the gateway returns as a JSON
// encoded string instead of an object.
func normalizeMetadata(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '"' {
		return raw
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil || !json.Valid([]byte(s)) {
		return raw
	}
	return json.RawMessage(s)
}
