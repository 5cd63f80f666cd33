package gateway

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrUnknownOrder = errors.New("order not found at provider")

// Capture is what the provider's checkout hands back to the buyer
type Capture struct {
	OrderID   string
	PaymentID string
	Signature string
}

// MockProvider is an in-memory payment provider. It signs captures with the
// same scheme as the real one, so verification runs unchanged against it.
type MockProvider struct {
	secret     string
	MinLatency time.Duration
	MaxLatency time.Duration

	mu       sync.Mutex
	orders   map[string]*Status
	failNext error
}

func NewMockProvider(secret string) *MockProvider {
	return &MockProvider{
		secret: secret,
		orders: make(map[string]*Status),
	}
}

// FailNext makes the next provider call return err
func (m *MockProvider) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, errors.New("BAD_REQUEST_ERROR: amount must be at least 1")
	}

	id := "order_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:14]

	m.mu.Lock()
	m.orders[id] = &Status{OrderID: id, Status: StatusCreated, Amount: req.Amount}
	m.mu.Unlock()

	log.Debug().
		Str("component", "mock_gateway").
		Str("order_id", id).
		Int64("amount", req.Amount).
		Str("receipt", req.Receipt).
		Msg("order created")

	return &Order{ID: id, Amount: req.Amount, Currency: req.Currency, Status: StatusCreated}, nil
}

func (m *MockProvider) OrderStatus(ctx context.Context, orderID string) (*Status, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	status, ok := m.orders[orderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	out := *status
	return &out, nil
}

// Capture simulates the buyer completing payment for orderID
func (m *MockProvider) Capture(orderID string) (*Capture, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.orders[orderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if status.PaymentID == "" {
		status.PaymentID = "pay_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:14]
		status.Status = StatusPaid
	}

	return &Capture{
		OrderID:   orderID,
		PaymentID: status.PaymentID,
		Signature: Sign(m.secret, orderID, status.PaymentID),
	}, nil
}

func (m *MockProvider) simulate(ctx context.Context) error {
	m.mu.Lock()
	err := m.failNext
	m.failNext = nil
	m.mu.Unlock()
	if err != nil {
		return err
	}

	if m.MaxLatency > m.MinLatency {
		latency := m.MinLatency + time.Duration(rand.Int63n(int64(m.MaxLatency-m.MinLatency)))
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return fmt.Errorf("mock gateway: %w", ctx.Err())
		}
	}
	return ctx.Err()
}
