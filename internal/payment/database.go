package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ksred/pageturn-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateOrder(ctx context.Context, order *types.PaymentOrder) error {
	return d.db.WithContext(ctx).Create(order).Error
}

func (d *Database) GetOrder(ctx context.Context, providerOrderID string) (*types.PaymentOrder, error) {
	var order types.PaymentOrder
	if err := d.db.WithContext(ctx).Where("provider_order_id = ?", providerOrderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("payment order not found")
		}
		return nil, fmt.Errorf("failed to fetch payment order: %w", err)
	}
	return &order, nil
}

// GetStaleOrders returns orders still in Created that were opened before cutoff
func (d *Database) GetStaleOrders(ctx context.Context, cutoff time.Time) ([]types.PaymentOrder, error) {
	var orders []types.PaymentOrder
	err := d.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", types.OrderCreated, cutoff).
		Order("created_at").
		Find(&orders).Error
	return orders, err
}

// CloseStaleOrder moves an unsettled order to a final reconciler state.
// paymentID is kept when the provider captured a payment. Orders settled in the
// meantime are left alone.
func (d *Database) CloseStaleOrder(ctx context.Context, providerOrderID, status, paymentID string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if paymentID != "" {
		updates["provider_payment_id"] = paymentID
	}
	return d.db.WithContext(ctx).Model(&types.PaymentOrder{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, types.OrderCreated).
		Updates(updates).Error
}
