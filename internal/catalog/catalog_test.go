package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/database/dbtest"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seed(t *testing.T, db *gorm.DB, id, seller, category string, age time.Duration) {
	t.Helper()
	require.NoError(t, db.Create(&types.CatalogEntry{
		EntryID:   id,
		SellerID:  seller,
		Title:     "Book " + id,
		Author:    "Author",
		Price:     100,
		Condition: "Good",
		Category:  category,
		Images:    []string{"a.jpg"},
		CreatedAt: time.Now().Add(-age),
	}).Error)
}

func TestBrowse(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	svc := NewService(db)

	seed(t, db, "old", "seller-1", "Textbook", time.Hour)
	seed(t, db, "new", "seller-2", "Fiction", time.Minute)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "new", all[0].EntryID, "newest first")

	textbooks, err := svc.ListByCategory(ctx, "Textbook")
	require.NoError(t, err)
	require.Len(t, textbooks, 1)
	assert.Equal(t, "old", textbooks[0].EntryID)

	_, err = svc.ListByCategory(ctx, "Comics")
	assert.ErrorIs(t, err, types.ErrValidation)

	mine, err := svc.ListBySeller(ctx, "seller-2")
	require.NoError(t, err)
	require.Len(t, mine, 1)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	seed(t, db, "clrs", "seller-1", "Textbook", time.Minute)

	h := NewGinHandlers(NewService(db))
	r := gin.New()
	r.GET("/api/books/dashboard", h.DashboardHandler())
	r.GET("/api/books/category/:category", h.CategoryHandler())
	r.GET("/api/books/:id", h.GetHandler())

	tests := []struct {
		path   string
		status int
	}{
		{"/api/books/dashboard", http.StatusOK},
		{"/api/books/category/Textbook", http.StatusOK},
		{"/api/books/category/Comics", http.StatusBadRequest},
		{"/api/books/clrs", http.StatusOK},
		{"/api/books/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/clrs", nil))
	var body struct {
		Success bool               `json:"success"`
		Data    types.CatalogEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "clrs", body.Data.EntryID)
}
