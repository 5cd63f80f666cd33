package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/ksred/pageturn-api/pkg/response"
	"gorm.io/gorm"
)

// Service exposes approved books to buyers. Entries are written by approval
// and removed by settlement; nothing here mutates them.
type Service struct {
	db *Database
}

func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

func (s *Service) Get(ctx context.Context, entryID string) (*types.CatalogEntry, error) {
	return s.db.Get(ctx, entryID)
}

func (s *Service) List(ctx context.Context) ([]types.CatalogEntry, error) {
	return s.db.List(ctx)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]types.CatalogEntry, error) {
	if !types.ValidCategory(category) {
		return nil, types.Validation("invalid category")
	}
	return s.db.ListByCategory(ctx, category)
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]types.CatalogEntry, error) {
	return s.db.ListBySeller(ctx, sellerID)
}

// GinHandlers contains HTTP handlers for browsing endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// DashboardHandler handles GET /books/dashboard
func (h *GinHandlers) DashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.service.List(c.Request.Context())
		response.Handle(c, entries, err)
	}
}

// CategoryHandler handles GET /books/category/:category
func (h *GinHandlers) CategoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := h.service.ListByCategory(c.Request.Context(), c.Param("category"))
		response.Handle(c, entries, err)
	}
}

// GetHandler handles GET /books/:id
func (h *GinHandlers) GetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := h.service.Get(c.Request.Context(), c.Param("id"))
		response.Handle(c, entry, err)
	}
}

// MineHandler handles GET /books/mine/approved
func (h *GinHandlers) MineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}
		entries, err := h.service.ListBySeller(c.Request.Context(), actor.ID)
		response.Handle(c, entries, err)
	}
}
