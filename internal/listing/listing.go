package listing

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/ksred/pageturn-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// SubmitRequest is the seller-supplied description of a book
type SubmitRequest struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	ISBN        string   `json:"isbn"`
	Price       float64  `json:"price"`
	Condition   string   `json:"condition"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
}

// Validate checks the fields every listing must carry
func (r SubmitRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return types.Validation("title is required")
	}
	if strings.TrimSpace(r.Author) == "" {
		return types.Validation("author is required")
	}
	if math.IsNaN(r.Price) || math.IsInf(r.Price, 0) || r.Price <= 0 {
		return types.Validation("price must be a positive number")
	}
	if r.Price > types.MaxPrice {
		return types.Validation(fmt.Sprintf("price must not exceed %d", types.MaxPrice))
	}
	if !types.ValidCondition(r.Condition) {
		return types.Validation("invalid condition")
	}
	if !types.ValidCategory(r.Category) {
		return types.Validation("invalid category")
	}
	if len(r.Images) == 0 {
		return types.Validation("at least one image is required")
	}
	return nil
}

// Service handles seller submissions and the pending review queue
type Service struct {
	db *Database
}

// NewService creates a new listing service with the given database connection
func NewService(gormDB *gorm.DB) *Service {
	return &Service{
		db: NewDatabase(gormDB),
	}
}

// Submit stores a new Pending listing for the seller
func (s *Service) Submit(ctx context.Context, sellerID string, req SubmitRequest) (*types.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	listing := &types.Listing{
		ListingID:   uuid.New().String(),
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		ISBN:        req.ISBN,
		Price:       req.Price,
		Condition:   req.Condition,
		Description: req.Description,
		Images:      req.Images,
		Category:    req.Category,
		SellerID:    sellerID,
		State:       types.ListingPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.Create(ctx, listing); err != nil {
		return nil, err
	}

	log.Info().
		Str("service", "listing").
		Str("listing_id", listing.ListingID).
		Str("seller_id", sellerID).
		Msg("listing submitted")

	return listing, nil
}

// Update replaces the contents of the seller's own Pending listing
func (s *Service) Update(ctx context.Context, listingID, sellerID string, req SubmitRequest) (*types.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	listing := &types.Listing{
		ListingID:   listingID,
		SellerID:    sellerID,
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		ISBN:        req.ISBN,
		Price:       req.Price,
		Condition:   req.Condition,
		Description: req.Description,
		Images:      req.Images,
		Category:    req.Category,
	}
	if err := s.db.UpdatePending(ctx, listing); err != nil {
		return nil, err
	}

	return s.db.Get(ctx, listingID)
}

// Delete removes the seller's own listing, pending or rejected
func (s *Service) Delete(ctx context.Context, listingID, sellerID string) error {
	return s.db.DeletePending(ctx, listingID, sellerID)
}

// Pending returns the admin review queue, newest first
func (s *Service) Pending(ctx context.Context, actor types.Actor) ([]types.Listing, error) {
	if !actor.IsAdmin() {
		return nil, types.Forbidden("admin access required")
	}
	return s.db.ListPending(ctx)
}

// Mine returns the seller's listings in the given state
func (s *Service) Mine(ctx context.Context, sellerID, state string) ([]types.Listing, error) {
	return s.db.ListBySeller(ctx, sellerID, state)
}

// GinHandlers contains HTTP handlers for listing endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for listing endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// SubmitHandler handles POST /books/sell
func (h *GinHandlers) SubmitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		listing, err := h.service.Submit(c.Request.Context(), actor.ID, req)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusCreated, "Book submitted for approval", listing)
	}
}

// UpdateHandler handles PUT /books/update/:id
func (h *GinHandlers) UpdateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		listing, err := h.service.Update(c.Request.Context(), c.Param("id"), actor.ID, req)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Book updated successfully", listing)
	}
}

// DeleteHandler handles DELETE /books/delete/:id
func (h *GinHandlers) DeleteHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		if err := h.service.Delete(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Book deleted successfully", nil)
	}
}

// PendingHandler handles GET /books/pending for admins
func (h *GinHandlers) PendingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		listings, err := h.service.Pending(c.Request.Context(), actor)
		response.Handle(c, listings, err)
	}
}

// MineHandler lists the caller's listings in one state
func (h *GinHandlers) MineHandler(state string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		listings, err := h.service.Mine(c.Request.Context(), actor.ID, state)
		response.Handle(c, listings, err)
	}
}
