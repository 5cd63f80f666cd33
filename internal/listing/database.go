package listing

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

func (d *Database) Create(ctx context.Context, listing *types.Listing) error {
	return d.db.WithContext(ctx).Create(listing).Error
}

func (d *Database) Get(ctx context.Context, listingID string) (*types.Listing, error) {
	var listing types.Listing
	if err := d.db.WithContext(ctx).Where("listing_id = ?", listingID).First(&listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NotFound("book not found")
		}
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	return &listing, nil
}

func (d *Database) ListPending(ctx context.Context) ([]types.Listing, error) {
	var listings []types.Listing
	if err := d.db.WithContext(ctx).
		Where("state = ?", types.ListingPending).
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

func (d *Database) ListBySeller(ctx context.Context, sellerID, state string) ([]types.Listing, error) {
	var listings []types.Listing
	if err := d.db.WithContext(ctx).
		Where("seller_id = ? AND state = ?", sellerID, state).
		Order("created_at DESC").
		Find(&listings).Error; err != nil {
		return nil, err
	}
	return listings, nil
}

// UpdatePending overwrites the editable fields of a seller's pending listing
func (d *Database) UpdatePending(ctx context.Context, listing *types.Listing) error {
	result := d.db.WithContext(ctx).Model(&types.Listing{}).
		Where("listing_id = ? AND seller_id = ? AND state = ?", listing.ListingID, listing.SellerID, types.ListingPending).
		Updates(map[string]interface{}{
			"title":       listing.Title,
			"author":      listing.Author,
			"isbn":        listing.ISBN,
			"price":       listing.Price,
			"condition":   listing.Condition,
			"description": listing.Description,
			"category":    listing.Category,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return types.NotFound("no pending book found with this ID")
	}

	return nil
}

// DeletePending removes a listing owned by the seller
func (d *Database) DeletePending(ctx context.Context, listingID, sellerID string) error {
	result := d.db.WithContext(ctx).Unscoped().
		Where("listing_id = ? AND seller_id = ?", listingID, sellerID).
		Delete(&types.Listing{})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return types.NotFound("no book found with this ID")
	}

	return nil
}

// Reject moves a pending listing to Rejected. It reports whether a row changed.
func (d *Database) Reject(ctx context.Context, listingID, reason string) (bool, error) {
	result := d.db.WithContext(ctx).Model(&types.Listing{}).
		Where("listing_id = ? AND state = ?", listingID, types.ListingPending).
		Updates(map[string]interface{}{
			"state":            types.ListingRejected,
			"rejection_reason": reason,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ApproveInto removes the pending listing and inserts its catalog entry in one transaction
func (d *Database) ApproveInto(ctx context.Context, listingID string, entry *types.CatalogEntry) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Unscoped().
			Where("listing_id = ? AND state = ?", listingID, types.ListingPending).
			Delete(&types.Listing{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return types.NotFound("book not found")
		}

		return tx.Create(entry).Error
	})
}
