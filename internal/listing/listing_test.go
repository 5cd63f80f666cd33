package listing

import (
	"context"
	"math"
	"testing"

	"github.com/ksred/pageturn-api/internal/database/dbtest"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() SubmitRequest {
	return SubmitRequest{
		Title:     "Intro to Algorithms",
		Author:    "Cormen",
		Price:     450,
		Condition: "Good",
		Category:  "Textbook",
		Images:    []string{"https://img.example/clrs.jpg"},
	}
}

func TestSubmitRequestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *SubmitRequest)
	}{
		{"blank title", func(r *SubmitRequest) { r.Title = "  " }},
		{"blank author", func(r *SubmitRequest) { r.Author = "" }},
		{"zero price", func(r *SubmitRequest) { r.Price = 0 }},
		{"NaN price", func(r *SubmitRequest) { r.Price = math.NaN() }},
		{"infinite price", func(r *SubmitRequest) { r.Price = math.Inf(1) }},
		{"price above ceiling", func(r *SubmitRequest) { r.Price = 1e17 }},
		{"unknown condition", func(r *SubmitRequest) { r.Condition = "Mint" }},
		{"unknown category", func(r *SubmitRequest) { r.Category = "Comics" }},
		{"no images", func(r *SubmitRequest) { r.Images = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			assert.ErrorIs(t, err, types.ErrValidation)
		})
	}

	assert.NoError(t, validRequest().Validate())

	atCeiling := validRequest()
	atCeiling.Price = types.MaxPrice
	assert.NoError(t, atCeiling.Validate())
}

func TestSubmitCreatesPendingListing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(dbtest.New(t))

	listing, err := svc.Submit(ctx, "seller-1", validRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, listing.ListingID)
	assert.Equal(t, types.ListingPending, listing.State)
	assert.Empty(t, listing.RejectionReason)

	stored, err := svc.db.Get(ctx, listing.ListingID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://img.example/clrs.jpg"}, stored.Images)

	mine, err := svc.Mine(ctx, "seller-1", types.ListingPending)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestUpdateOnlyOwnPending(t *testing.T) {
	ctx := context.Background()
	svc := NewService(dbtest.New(t))

	listing, err := svc.Submit(ctx, "seller-1", validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Price = 399

	_, err = svc.Update(ctx, listing.ListingID, "someone-else", req)
	assert.ErrorIs(t, err, types.ErrNotFound)

	updated, err := svc.Update(ctx, listing.ListingID, "seller-1", req)
	require.NoError(t, err)
	assert.Equal(t, 399.0, updated.Price)

	changed, err := svc.db.Reject(ctx, listing.ListingID, "blurry photos")
	require.NoError(t, err)
	require.True(t, changed)

	_, err = svc.Update(ctx, listing.ListingID, "seller-1", req)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDeleteOwnListing(t *testing.T) {
	ctx := context.Background()
	svc := NewService(dbtest.New(t))

	listing, err := svc.Submit(ctx, "seller-1", validRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, listing.ListingID, "someone-else"), types.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, listing.ListingID, "seller-1"))

	_, err = svc.db.Get(ctx, listing.ListingID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPendingRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc := NewService(dbtest.New(t))

	_, err := svc.Submit(ctx, "seller-1", validRequest())
	require.NoError(t, err)

	_, err = svc.Pending(ctx, types.Actor{ID: "seller-1", Role: types.RoleUser})
	assert.ErrorIs(t, err, types.ErrForbidden)

	pending, err := svc.Pending(ctx, types.Actor{ID: "admin-1", Role: types.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestApproveIntoMovesListing(t *testing.T) {
	ctx := context.Background()
	gormDB := dbtest.New(t)
	svc := NewService(gormDB)

	listing, err := svc.Submit(ctx, "seller-1", validRequest())
	require.NoError(t, err)

	entry := &types.CatalogEntry{EntryID: listing.ListingID, SellerID: "seller-1", Title: listing.Title, Price: listing.Price}
	require.NoError(t, svc.db.ApproveInto(ctx, listing.ListingID, entry))

	_, err = svc.db.Get(ctx, listing.ListingID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	var count int64
	require.NoError(t, gormDB.Model(&types.CatalogEntry{}).Where("entry_id = ?", listing.ListingID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// second approval of the same listing loses
	err = svc.db.ApproveInto(ctx, listing.ListingID, &types.CatalogEntry{EntryID: "other"})
	assert.ErrorIs(t, err, types.ErrNotFound)
}
