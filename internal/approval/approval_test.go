package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/auth"
	"github.com/ksred/pageturn-api/internal/catalog"
	"github.com/ksred/pageturn-api/internal/database/dbtest"
	"github.com/ksred/pageturn-api/internal/listing"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/notify/notifytest"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	admin  = types.Actor{ID: "admin-1", Role: types.RoleAdmin}
	seller = types.Actor{ID: "seller-1", Role: types.RoleUser}
)

func submit(t *testing.T, db *gorm.DB) *types.Listing {
	t.Helper()
	l, err := listing.NewService(db).Submit(context.Background(), seller.ID, listing.SubmitRequest{
		Title:       "Intro to Algorithms",
		Author:      "Cormen",
		ISBN:        "9780262033848",
		Price:       450,
		Condition:   "Good",
		Description: "Some highlighting",
		Images:      []string{"a.jpg", "b.jpg"},
		Category:    "Textbook",
	})
	require.NoError(t, err)
	return l
}

func TestApproveCopiesFieldsAndRemovesListing(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	recorder := &notifytest.Recorder{}
	svc := NewService(db, recorder)
	l := submit(t, db)

	entry, err := svc.Approve(ctx, l.ListingID, admin)
	require.NoError(t, err)

	stored, err := catalog.NewDatabase(db).Get(ctx, entry.EntryID)
	require.NoError(t, err)
	assert.Equal(t, l.Title, stored.Title)
	assert.Equal(t, l.Author, stored.Author)
	assert.Equal(t, l.ISBN, stored.ISBN)
	assert.Equal(t, l.Price, stored.Price)
	assert.Equal(t, l.Condition, stored.Condition)
	assert.Equal(t, l.Description, stored.Description)
	assert.Equal(t, l.Images, stored.Images)
	assert.Equal(t, l.Category, stored.Category)
	assert.Equal(t, seller.ID, stored.SellerID)
	assert.Equal(t, admin.ID, stored.ApprovedBy)

	_, err = listing.NewDatabase(db).Get(ctx, l.ListingID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	events := recorder.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.BookApproved(seller.ID, l.Title), events[0])

	_, err = svc.Approve(ctx, l.ListingID, admin)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestApproveRequiresAdmin(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db, notify.Nop{})
	l := submit(t, db)

	_, err := svc.Approve(context.Background(), l.ListingID, seller)
	assert.ErrorIs(t, err, types.ErrForbidden)

	_, err = listing.NewDatabase(db).Get(context.Background(), l.ListingID)
	assert.NoError(t, err)
}

func TestApproveRejectedListingFails(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	svc := NewService(db, notify.Nop{})
	l := submit(t, db)

	_, err := svc.Reject(ctx, l.ListingID, admin, "cover torn")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, l.ListingID, admin)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestApproveSurvivesNotifierFailure(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db, &notifytest.Recorder{Err: errors.New("queue down")})
	l := submit(t, db)

	_, err := svc.Approve(context.Background(), l.ListingID, admin)
	assert.NoError(t, err)
}

func TestConcurrentApproveCreatesOneEntry(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	svc := NewService(db, notify.Nop{})
	l := submit(t, db)

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := svc.Approve(ctx, l.ListingID, admin)
			errs <- err
		}()
	}

	var failures int
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			assert.ErrorIs(t, err, types.ErrNotFound)
			failures++
		}
	}
	assert.Equal(t, 1, failures)

	var count int64
	require.NoError(t, db.Model(&types.CatalogEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReject(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	recorder := &notifytest.Recorder{}
	svc := NewService(db, recorder)
	l := submit(t, db)

	t.Run("blank reason leaves listing unchanged", func(t *testing.T) {
		_, err := svc.Reject(ctx, l.ListingID, admin, "   ")
		assert.ErrorIs(t, err, types.ErrValidation)

		stored, err := listing.NewDatabase(db).Get(ctx, l.ListingID)
		require.NoError(t, err)
		assert.Equal(t, types.ListingPending, stored.State)
		assert.Empty(t, stored.RejectionReason)
		assert.Empty(t, recorder.Events())
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		_, err := svc.Reject(ctx, l.ListingID, seller, "no")
		assert.ErrorIs(t, err, types.ErrForbidden)
	})

	t.Run("unknown listing", func(t *testing.T) {
		_, err := svc.Reject(ctx, "missing", admin, "no")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("rejects with reason", func(t *testing.T) {
		rejected, err := svc.Reject(ctx, l.ListingID, admin, "blurry photos")
		require.NoError(t, err)
		assert.Equal(t, types.ListingRejected, rejected.State)
		assert.Equal(t, "blurry photos", rejected.RejectionReason)

		events := recorder.Events()
		require.Len(t, events, 1)
		assert.Equal(t, notify.EventBookRejected, events[0].Type)
		assert.Equal(t, "blurry photos", events[0].Reason)
	})

	t.Run("second rejection fails", func(t *testing.T) {
		_, err := svc.Reject(ctx, l.ListingID, admin, "again")
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	authService := auth.NewService("test-secret")
	h := NewGinHandlers(NewService(db, notify.Nop{}))

	r := gin.New()
	admins := r.Group("/api/books", middleware.JWTAuth(authService), middleware.RequireAdmin())
	admins.PUT("/approveBook/:id", h.ApproveHandler())
	admins.PUT("/rejectBook/:id", h.RejectHandler())

	adminToken, err := authService.GenerateToken(admin.ID, types.RoleAdmin, time.Hour)
	require.NoError(t, err)
	userToken, err := authService.GenerateToken(seller.ID, types.RoleUser, time.Hour)
	require.NoError(t, err)

	put := func(path, token string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(http.MethodPut, path, &buf)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := submit(t, db)
	second := submit(t, db)

	assert.Equal(t, http.StatusForbidden, put("/api/books/approveBook/"+first.ListingID, userToken, nil).Code)

	w := put("/api/books/approveBook/"+first.ListingID, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"message":"Book approved successfully"}`, w.Body.String())

	w = put("/api/books/rejectBook/"+second.ListingID, adminToken, gin.H{"rejectionReason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = put("/api/books/rejectBook/"+second.ListingID, adminToken, gin.H{"rejectionReason": "water damage"})
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool          `json:"success"`
		Message string        `json:"message"`
		Book    types.Listing `json:"book"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "water damage", body.Book.RejectionReason)
	assert.Equal(t, types.ListingRejected, body.Book.State)

	assert.Equal(t, http.StatusNotFound, put("/api/books/approveBook/missing", adminToken, nil).Code)
}
