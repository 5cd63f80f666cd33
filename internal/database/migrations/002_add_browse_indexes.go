package migrations

import "gorm.io/gorm"

// AddBrowseIndexes adds the indexes behind the dashboard and history queries
func AddBrowseIndexes(db *gorm.DB) error {
	indexes := []string{
		// Dashboard and category pages sort newest first
		`CREATE INDEX IF NOT EXISTS idx_catalog_entries_created_at
		 ON catalog_entries(created_at)`,

		`CREATE INDEX IF NOT EXISTS idx_catalog_entries_category_created_at
		 ON catalog_entries(category, created_at)`,

		// Seller queues filter by owner and state
		`CREATE INDEX IF NOT EXISTS idx_listings_seller_state
		 ON listings(seller_id, state)`,

		// Sold/bought history sorts by sale time
		`CREATE INDEX IF NOT EXISTS idx_sale_records_sold_at
		 ON sale_records(sold_at)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
