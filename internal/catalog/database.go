package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksred/pageturn-api/internal/types"
	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) Get(ctx context.Context, entryID string) (*types.CatalogEntry, error) {
	var entry types.CatalogEntry
	if err := d.db.WithContext(ctx).Where("entry_id = ?", entryID).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("book not found")
		}
		return nil, fmt.Errorf("failed to fetch catalog entry: %w", err)
	}
	return &entry, nil
}

func (d *Database) List(ctx context.Context) ([]types.CatalogEntry, error) {
	var entries []types.CatalogEntry
	err := d.db.WithContext(ctx).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (d *Database) ListByCategory(ctx context.Context, category string) ([]types.CatalogEntry, error) {
	var entries []types.CatalogEntry
	err := d.db.WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (d *Database) ListBySeller(ctx context.Context, sellerID string) ([]types.CatalogEntry, error) {
	var entries []types.CatalogEntry
	err := d.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
