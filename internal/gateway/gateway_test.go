package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignatureRoundTrip(t *testing.T) {
	sig := Sign("secret", "order_1", "pay_1")
	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature("secret", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("other", "order_1", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_2", "pay_1", sig))
	assert.False(t, VerifySignature("secret", "order_1", "pay_1", ""))

	flipped := []byte(sig)
	if flipped[0] == 'a' {
		flipped[0] = 'b'
	} else {
		flipped[0] = 'a'
	}
	assert.False(t, VerifySignature("secret", "order_1", "pay_1", string(flipped)))
}

func TestMockProviderLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMockProvider("secret")

	order, err := m.CreateOrder(ctx, OrderRequest{Amount: 45000, Currency: "INR", Receipt: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(45000), order.Amount)

	status, err := m.OrderStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status.Status)
	assert.Empty(t, status.PaymentID)

	capture, err := m.Capture(order.ID)
	require.NoError(t, err)
	assert.True(t, VerifySignature("secret", order.ID, capture.PaymentID, capture.Signature))

	again, err := m.Capture(order.ID)
	require.NoError(t, err)
	assert.Equal(t, capture.PaymentID, again.PaymentID)

	status, err = m.OrderStatus(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status.Status)
	assert.Equal(t, capture.PaymentID, status.PaymentID)

	_, err = m.OrderStatus(ctx, "order_missing")
	assert.ErrorIs(t, err, ErrUnknownOrder)
}

func TestMockProviderFailNext(t *testing.T) {
	m := NewMockProvider("secret")
	m.FailNext(errors.New("provider down"))

	_, err := m.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.EqualError(t, err, "provider down")

	_, err = m.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})
	assert.NoError(t, err)
}
