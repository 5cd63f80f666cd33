package settlement

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ksred/pageturn-api/internal/catalog"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/payment"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/ksred/pageturn-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// VerifyRequest is the checkout result the buyer's client posts back
type VerifyRequest struct {
	PaymentID      string `json:"razorpay_payment_id"`
	OrderID        string `json:"razorpay_order_id"`
	Signature      string `json:"razorpay_signature"`
	CatalogEntryID string `json:"bookId"`
}

// Result of a verification. AlreadySettled is set when the same payment had
// settled on an earlier call.
type Result struct {
	Sale           *types.SaleRecord
	AlreadySettled bool
}

type Service struct {
	db       *Database
	catalog  *catalog.Database
	orders   *payment.Database
	secret   string
	notifier notify.Notifier
}

func NewService(gormDB *gorm.DB, secret string, notifier notify.Notifier) *Service {
	return &Service{
		db:       NewDatabase(gormDB),
		catalog:  catalog.NewDatabase(gormDB),
		orders:   payment.NewDatabase(gormDB),
		secret:   secret,
		notifier: notifier,
	}
}

// Verify checks the provider signature and converts the catalog entry into a
// sale. At most one sale is ever recorded per entry and per payment.
func (s *Service) Verify(ctx context.Context, req VerifyRequest, buyerID string) (*Result, error) {
	logger := log.With().
		Str("service", "settlement").
		Str("book_id", req.CatalogEntryID).
		Str("order_id", req.OrderID).
		Str("payment_id", req.PaymentID).
		Str("buyer_id", buyerID).
		Logger()

	if strings.TrimSpace(req.PaymentID) == "" || strings.TrimSpace(req.OrderID) == "" ||
		strings.TrimSpace(req.Signature) == "" || strings.TrimSpace(req.CatalogEntryID) == "" {
		return nil, types.Validation("missing required payment verification fields")
	}

	if !payment.VerifySignature(s.secret, req.OrderID, req.PaymentID, req.Signature) {
		logger.Warn().Msg("payment signature mismatch")
		return nil, types.Unauthorized("invalid payment signature")
	}

	entry, err := s.catalog.Get(ctx, req.CatalogEntryID)
	if errors.Is(err, types.ErrNotFound) {
		return s.settledEarlier(ctx, req, buyerID, err)
	}
	if err != nil {
		return nil, err
	}

	if entry.SellerID == buyerID {
		return nil, types.Forbidden("you cannot buy your own book")
	}

	if err := s.checkOrder(ctx, req.OrderID, entry, buyerID); err != nil {
		logger.Warn().Err(err).Msg("payment order does not match book")
		return nil, err
	}

	sale := &types.SaleRecord{
		SaleID:         uuid.New().String(),
		Title:          entry.Title,
		Author:         entry.Author,
		Condition:      entry.Condition,
		Category:       entry.Category,
		Images:         entry.Images,
		Price:          entry.Price,
		SellerID:       entry.SellerID,
		BuyerID:        buyerID,
		CatalogEntryID: entry.EntryID,
		SoldAt:         time.Now(),
		TransactionID:  req.PaymentID,
		PaymentMethod:  types.PaymentUPI,
	}

	if err := s.db.Settle(ctx, entry.EntryID, sale, req.OrderID); err != nil {
		if errors.Is(err, types.ErrNotFound) || errors.Is(err, gorm.ErrDuplicatedKey) {
			logger.Info().Err(err).Msg("settlement lost, checking for earlier sale")
			return s.settledEarlier(ctx, req, buyerID, types.NotFound("book not found or already sold"))
		}
		logger.Error().Err(err).Msg("failed to settle sale")
		return nil, err
	}

	logger.Info().Str("sale_id", sale.SaleID).Float64("price", sale.Price).Msg("sale settled")

	if err := s.notifier.Notify(ctx, notify.BookSold(*sale)); err != nil {
		logger.Error().Err(err).Msg("failed to enqueue sale notification")
	}

	return &Result{Sale: sale}, nil
}

// settledEarlier returns the sale a previous call with the same payment
// produced, or notFound when the entry went to someone else.
func (s *Service) settledEarlier(ctx context.Context, req VerifyRequest, buyerID string, notFound error) (*Result, error) {
	sale, err := s.db.GetByTransactionID(ctx, req.PaymentID)
	if errors.Is(err, types.ErrNotFound) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	if sale.CatalogEntryID != req.CatalogEntryID || sale.BuyerID != buyerID {
		return nil, notFound
	}

	log.Info().
		Str("service", "settlement").
		Str("sale_id", sale.SaleID).
		Str("payment_id", req.PaymentID).
		Msg("payment already settled")

	return &Result{Sale: sale, AlreadySettled: true}, nil
}

// checkOrder ties the signed order to this entry, this buyer and the current price
func (s *Service) checkOrder(ctx context.Context, orderID string, entry *types.CatalogEntry, buyerID string) error {
	order, err := s.orders.GetOrder(ctx, orderID)
	if errors.Is(err, types.ErrNotFound) {
		return types.Validation("unknown payment order")
	}
	if err != nil {
		return err
	}

	amount, err := payment.AmountFor(entry.Price)
	if err != nil {
		return err
	}

	if order.CatalogEntryID != entry.EntryID || order.BuyerID != buyerID || order.Amount != amount {
		return types.Validation("payment order does not match this book")
	}
	return nil
}

// SoldBy returns the seller's sales history
func (s *Service) SoldBy(ctx context.Context, sellerID string) ([]types.SaleRecord, error) {
	return s.db.ListBySeller(ctx, sellerID)
}

// BoughtBy returns the buyer's purchase history
func (s *Service) BoughtBy(ctx context.Context, buyerID string) ([]types.SaleRecord, error) {
	return s.db.ListByBuyer(ctx, buyerID)
}

// GinHandlers contains HTTP handlers for verification and sales history
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// VerifyHandler handles POST /payments/verify
func (h *GinHandlers) VerifyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		result, err := h.service.Verify(c.Request.Context(), req, actor.ID)
		if err != nil {
			response.Fail(c, err)
			return
		}

		if result.AlreadySettled {
			response.Message(c, http.StatusOK, "Payment already verified", result.Sale)
			return
		}
		response.Message(c, http.StatusCreated, "Payment verified and book purchased successfully", result.Sale)
	}
}

// SoldHandler handles GET /books/sold
func (h *GinHandlers) SoldHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}
		sales, err := h.service.SoldBy(c.Request.Context(), actor.ID)
		response.Handle(c, sales, err)
	}
}

// BoughtHandler handles GET /books/bought
func (h *GinHandlers) BoughtHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}
		sales, err := h.service.BoughtBy(c.Request.Context(), actor.ID)
		response.Handle(c, sales, err)
	}
}
