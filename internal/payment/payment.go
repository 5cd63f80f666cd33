package payment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/catalog"
	"github.com/ksred/pageturn-api/internal/config"
	"github.com/ksred/pageturn-api/internal/gateway"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"github.com/ksred/pageturn-api/pkg/response"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// OrderResult is returned to the buyer's client to start checkout
type OrderResult struct {
	ProviderOrderID string `json:"id"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PayLink         string `json:"upi_link"`
	IsTestMode      bool   `json:"isTestMode"`
}

type StatusResult struct {
	Status    string `json:"status"`
	PaymentID string `json:"payment_id,omitempty"`
	Amount    int64  `json:"amount"`
}

// AmountFor converts a catalog price to minor units
func AmountFor(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, types.Validation("invalid book price")
	}
	minor := math.Round(price * 100)
	if minor >= math.MaxInt64 || minor <= math.MinInt64 {
		return 0, types.Validation("invalid book price")
	}
	return int64(minor), nil
}

// VerifySignature checks the checkout signature the provider returned to the buyer
func VerifySignature(secret, orderID, paymentID, signature string) bool {
	return gateway.VerifySignature(secret, orderID, paymentID, signature)
}

// Service opens provider orders for catalog entries
type Service struct {
	db      *Database
	catalog *catalog.Database
	gateway gateway.Gateway
	cfg     config.Gateway
}

func NewService(gormDB *gorm.DB, gw gateway.Gateway, cfg config.Gateway) *Service {
	return &Service{
		db:      NewDatabase(gormDB),
		catalog: catalog.NewDatabase(gormDB),
		gateway: gw,
		cfg:     cfg,
	}
}

// CreateOrder opens a provider order for the entry's current price. Nothing is
// reserved: several buyers may hold open orders for the same entry.
func (s *Service) CreateOrder(ctx context.Context, entryID, buyerID string) (*OrderResult, error) {
	logger := log.With().
		Str("service", "payment").
		Str("book_id", entryID).
		Str("buyer_id", buyerID).
		Logger()

	if strings.TrimSpace(entryID) == "" {
		return nil, types.Validation("book id is required")
	}

	entry, err := s.catalog.Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.SellerID == buyerID {
		return nil, types.Forbidden("you cannot buy your own book")
	}

	amount, err := AmountFor(entry.Price)
	if err != nil {
		return nil, err
	}
	if amount < s.cfg.MinimumChargeableAmount {
		return nil, types.Validation(fmt.Sprintf("amount must be at least %.2f", float64(s.cfg.MinimumChargeableAmount)/100))
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   amount,
		Currency: s.cfg.Currency,
		Receipt:  fmt.Sprintf("receipt_%d", time.Now().UnixMilli()),
		Notes:    map[string]string{"bookId": entryID, "buyerId": buyerID},
	})
	if err != nil {
		logger.Error().Err(err).Msg("payment provider rejected order")
		return nil, types.Upstream("payment provider error", err)
	}

	now := time.Now()
	if err := s.db.CreateOrder(ctx, &types.PaymentOrder{
		ProviderOrderID: order.ID,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		CatalogEntryID:  entryID,
		BuyerID:         buyerID,
		Status:          types.OrderCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to persist payment order")
		return nil, fmt.Errorf("failed to persist payment order: %w", err)
	}

	logger.Info().Str("order_id", order.ID).Int64("amount", amount).Msg("payment order created")

	return &OrderResult{
		ProviderOrderID: order.ID,
		Amount:          amount,
		Currency:        s.cfg.Currency,
		PayLink:         PayLink(s.cfg.MerchantUPIID, s.cfg.MerchantDisplayName, order.ID, amount),
		IsTestMode:      s.cfg.IsTestMode(),
	}, nil
}

// OrderStatus asks the provider for the state of one of the buyer's orders
func (s *Service) OrderStatus(ctx context.Context, providerOrderID, buyerID string) (*StatusResult, error) {
	order, err := s.db.GetOrder(ctx, providerOrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, types.NotFound("payment order not found")
	}

	status, err := s.gateway.OrderStatus(ctx, providerOrderID)
	if err != nil {
		log.Error().Err(err).Str("service", "payment").Str("order_id", providerOrderID).Msg("failed to fetch order status")
		return nil, types.Upstream("payment provider error", err)
	}

	return &StatusResult{
		Status:    status.Status,
		PaymentID: status.PaymentID,
		Amount:    status.Amount,
	}, nil
}

// GinHandlers contains HTTP handlers for the checkout endpoints
type GinHandlers struct {
	service *Service
}

func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

type createOrderRequest struct {
	BookID string `json:"bookId"`
}

// CreateOrderHandler handles POST /payments/create-order
func (h *GinHandlers) CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}

		result, err := h.service.CreateOrder(c.Request.Context(), req.BookID, actor.ID)
		if err != nil {
			response.Fail(c, err)
			return
		}
		response.OK(c, result)
	}
}

// StatusHandler handles GET /payments/status/:orderId
func (h *GinHandlers) StatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := middleware.CurrentActor(c)
		if !ok {
			response.Unauthorized(c, "Authentication required")
			return
		}

		result, err := h.service.OrderStatus(c.Request.Context(), c.Param("orderId"), actor.ID)
		response.Handle(c, result, err)
	}
}
