package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Provider-side order states
const (
	StatusCreated   = "created"
	StatusAttempted = "attempted"
	StatusPaid      = "paid"
)

type OrderRequest struct {
	Amount   int64 // minor units
	Currency string
	Receipt  string
	Notes    map[string]string
}

type Order struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
}

type Status struct {
	OrderID   string
	Status    string
	PaymentID string // set once a payment is captured
	Amount    int64
}

// Gateway is the payment provider as the order workflow sees it
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	OrderStatus(ctx context.Context, orderID string) (*Status, error)
}

// Sign computes the provider checkout signature: hex HMAC-SHA256 of "orderID|paymentID"
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
