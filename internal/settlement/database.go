package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ksred/pageturn-api/internal/types"
	"gorm.io/gorm"
)

// Database is the sale record store. Records are only ever inserted.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Settle removes the catalog entry, writes the sale and completes the payment
// order as one unit. A concurrent settle of the same entry loses with NotFound.
func (d *Database) Settle(ctx context.Context, entryID string, sale *types.SaleRecord, providerOrderID string) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().Where("entry_id = ?", entryID).Delete(&types.CatalogEntry{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove catalog entry: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return types.NotFound("book not found or already sold")
		}

		if err := tx.Create(sale).Error; err != nil {
			return err
		}

		return tx.Model(&types.PaymentOrder{}).
			Where("provider_order_id = ?", providerOrderID).
			Updates(map[string]interface{}{
				"status":              types.OrderCompleted,
				"provider_payment_id": sale.TransactionID,
				"updated_at":          time.Now(),
			}).Error
	})
}

func (d *Database) GetByTransactionID(ctx context.Context, transactionID string) (*types.SaleRecord, error) {
	var sale types.SaleRecord
	if err := d.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("sale not found")
		}
		return nil, fmt.Errorf("failed to fetch sale: %w", err)
	}
	return &sale, nil
}

func (d *Database) ListByBuyer(ctx context.Context, buyerID string) ([]types.SaleRecord, error) {
	var sales []types.SaleRecord
	err := d.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("sold_at DESC").Find(&sales).Error
	return sales, err
}

func (d *Database) ListBySeller(ctx context.Context, sellerID string) ([]types.SaleRecord, error) {
	var sales []types.SaleRecord
	err := d.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("sold_at DESC").Find(&sales).Error
	return sales, err
}
