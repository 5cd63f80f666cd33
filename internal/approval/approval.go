package approval

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/listing"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/ksred/pageturn-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Service moves listings out of the review queue
type Service struct {
	listings *listing.Database
	notifier notify.Notifier
}

func NewService(gormDB *gorm.DB, notifier notify.Notifier) *Service {
	return &Service{
		listings: listing.NewDatabase(gormDB),
		notifier: notifier,
	}
}

// Approve publishes a pending listing to the catalog. The listing row is
// removed and the catalog entry created in the same transaction.
func (s *Service) Approve(ctx context.Context, listingID string, actor types.Actor) (*types.CatalogEntry, error) {
	logger := log.With().
		Str("service", "approval").
		Str("listing_id", listingID).
		Str("admin_id", actor.ID).
		Logger()

	if !actor.IsAdmin() {
		return nil, types.Forbidden("admin access required")
	}

	pending, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if pending.State == types.ListingRejected {
		return nil, types.Validation("book was rejected and cannot be approved")
	}

	entry := &types.CatalogEntry{
		EntryID:     pending.ListingID,
		SellerID:    pending.SellerID,
		Title:       pending.Title,
		Author:      pending.Author,
		ISBN:        pending.ISBN,
		Price:       pending.Price,
		Condition:   pending.Condition,
		Description: pending.Description,
		Images:      pending.Images,
		Category:    pending.Category,
		ApprovedBy:  actor.ID,
		CreatedAt:   time.Now(),
	}

	if err := s.listings.ApproveInto(ctx, listingID, entry); err != nil {
		logger.Error().Err(err).Msg("failed to approve listing")
		return nil, err
	}

	logger.Info().Msg("listing approved")
	s.notify(ctx, notify.BookApproved(entry.SellerID, entry.Title))

	return entry, nil
}

// Reject marks a pending listing Rejected with the admin's reason
func (s *Service) Reject(ctx context.Context, listingID string, actor types.Actor, reason string) (*types.Listing, error) {
	logger := log.With().
		Str("service", "approval").
		Str("listing_id", listingID).
		Str("admin_id", actor.ID).
		Logger()

	if !actor.IsAdmin() {
		return nil, types.Forbidden("admin access required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, types.Validation("rejection reason is required")
	}

	changed, err := s.listings.Reject(ctx, listingID, reason)
	if err != nil {
		logger.Error().Err(err).Msg("failed to reject listing")
		return nil, err
	}

	rejected, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, types.Validation("book has already been rejected")
	}

	logger.Info().Str("reason", reason).Msg("listing rejected")
	s.notify(ctx, notify.BookRejected(rejected.SellerID, rejected.Title, reason))

	return rejected, nil
}

func (s *Service) notify(ctx context.Context, event notify.Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.Error().Err(err).Str("service", "approval").Str("event", string(event.Type)).Msg("failed to enqueue notification")
	}
}

// GinHandlers contains HTTP handlers for the admin review endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type rejectRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

// ApproveHandler handles PUT /books/approveBook/:id
func (h *GinHandlers) ApproveHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)
		if _, err := h.service.Approve(c.Request.Context(), c.Param("id"), actor); err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Book approved successfully", nil)
	}
}

// RejectHandler handles PUT /books/rejectBook/:id
func (h *GinHandlers) RejectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, _ := middleware.CurrentActor(c)

		var req rejectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		book, err := h.service.Reject(c.Request.Context(), c.Param("id"), actor, req.RejectionReason)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.Message(c, http.StatusOK, "Book rejected successfully", book)
	}
}
