package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/rs/zerolog/log"
)

// Razorpay talks to the Razorpay Orders API
type Razorpay struct {
	client *razorpay.Client
}

func NewRazorpay(keyID, secret string) *Razorpay {
	return &Razorpay{client: razorpay.NewClient(keyID, secret)}
}

func (r *Razorpay) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}

	body, err := r.client.Order.Create(map[string]interface{}{
		"amount":          req.Amount,
		"currency":        req.Currency,
		"receipt":         req.Receipt,
		"notes":           notes,
		"payment_capture": 1,
	}, nil)
	if err != nil {
		return nil, err
	}

	order := &Order{
		ID:       str(body["id"]),
		Amount:   num(body["amount"]),
		Currency: str(body["currency"]),
		Status:   str(body["status"]),
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay order response missing id")
	}

	log.Debug().Str("component", "razorpay").Str("order_id", order.ID).Int64("amount", order.Amount).Msg("order created")
	return order, nil
}

func (r *Razorpay) OrderStatus(ctx context.Context, orderID string) (*Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := r.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return nil, err
	}

	status := &Status{
		OrderID: orderID,
		Status:  str(body["status"]),
		Amount:  num(body["amount"]),
	}
	if status.Status != StatusPaid {
		return status, nil
	}

	payments, err := r.client.Order.Payments(orderID, nil, nil)
	if err != nil {
		return nil, err
	}
	items, _ := payments["items"].([]interface{})
	for _, item := range items {
		p, ok := item.(map[string]interface{})
		if ok && str(p["status"]) == "captured" {
			status.PaymentID = str(p["id"])
			break
		}
	}
	return status, nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// num reads a JSON number, which the client decodes as float64
func num(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
