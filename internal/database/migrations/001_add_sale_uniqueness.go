package migrations

import (
	"gorm.io/gorm"
)

// AddSaleUniqueness guarantees at most one sale per payment and per catalog entry.
// AutoMigrate creates these from struct tags too; the explicit statements keep
// databases created before the tags existed in line.
func AddSaleUniqueness(db *gorm.DB) error {
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sale_records_transaction_id
		 ON sale_records(transaction_id)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sale_records_catalog_entry_id
		 ON sale_records(catalog_entry_id)`,

		`CREATE UNIQUE INDEX IF NOT EXISTS idx_payment_orders_provider_order_id
		 ON payment_orders(provider_order_id)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
