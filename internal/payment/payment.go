// Package payment defines the contract with the payment gateway.
//
// Every flow is the same: Initialize returns a hosted checkout URL the user
// is redirected to; the gateway later redirects back to the flow's callback
// route with ?reference=..., where Verify confirms the outcome.
package payment

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/sakif/venturehub/internal/pricing"
)

// StatusSuccess is the only transaction status that counts as paid.
const StatusSuccess = "success"

// InitRequest starts a transaction. Amount is in major units; the gateway
// client converts it.
type InitRequest struct {
	Email       string
	Amount      float64
	Reference   string
	CallbackURL string
	Currency    string
	Metadata    map[string]any
}

// Checkout is where the user pays.
type Checkout struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is a verified gateway transaction.
type Transaction struct {
	Reference       string
	Status          string
	Amount          int64 // minor units
	Currency        string
	GatewayResponse string
	CustomerEmail   string
	CustomerName    string
	Metadata        json.RawMessage
}

// Successful reports whether the money was collected.
func (t *Transaction) Successful() bool {
	return t.Status == StatusSuccess
}

// AmountMajor is Amount in major units.
func (t *Transaction) AmountMajor() float64 {
	return pricing.FromMinor(t.Amount)
}

// Meta reads a metadata value by gjson path, "" when absent.
func (t *Transaction) Meta(path string) string {
	return gjson.GetBytes(t.Metadata, path).String()
}

// MetaFloat reads a numeric metadata value, 0 when absent.
func (t *Transaction) MetaFloat(path string) float64 {
	return gjson.GetBytes(t.Metadata, path).Float()
}

// Gateway is implemented by the payment gateway client.
type Gateway interface {
	Initialize(ctx context.Context, req InitRequest) (*Checkout, error)
	Verify(ctx context.Context, reference string) (*Transaction, error)
}

// NewReference returns a unique transaction reference with the given prefix,
// for example "tx_" or "renew_subscription_".
func NewReference(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
