package payment

import (
	"context"
	"time"

	"github.com/ksred/pageturn-api/internal/gateway"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/rs/zerolog/log"
)

// Reconciler looks for orders the provider captured but that never produced a
// sale: a buyer who lost the race for a book, or a client that never called
// verify. Such payments need a manual refund. Each stale order is closed once,
// as RefundRequired or Expired, and not polled again.
type Reconciler struct {
	db       *Database
	gateway  gateway.Gateway
	interval time.Duration
	grace    time.Duration // how long an order may stay open before it is checked
	expiry   time.Duration // how long an attempted payment may stay unresolved
}

func NewReconciler(db *Database, gw gateway.Gateway) *Reconciler {
	return &Reconciler{
		db:       db,
		gateway:  gw,
		interval: 5 * time.Minute,
		grace:    30 * time.Minute,
		expiry:   24 * time.Hour,
	}
}

// Start runs Sweep on a ticker until ctx is cancelled
func (r *Reconciler) Start(ctx context.Context) {
	logger := log.With().Str("component", "payment_reconciler").Logger()
	logger.Info().Msg("starting payment reconciler")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down payment reconciler")
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx, time.Now()); err != nil {
				logger.Error().Err(err).Msg("failed to reconcile payment orders")
			}
		}
	}
}

// Sweep closes stale orders and returns the ones the provider reports as paid.
// A paid order becomes RefundRequired. An order the buyer never tried to pay
// becomes Expired. An attempted payment is rechecked until expiry passes.
func (r *Reconciler) Sweep(ctx context.Context, now time.Time) ([]types.PaymentOrder, error) {
	logger := log.With().Str("component", "payment_reconciler").Logger()

	orders, err := r.db.GetStaleOrders(ctx, now.Add(-r.grace))
	if err != nil {
		return nil, err
	}

	logger.Debug().Int("stale_count", len(orders)).Msg("checking stale payment orders")

	var orphaned []types.PaymentOrder
	for _, order := range orders {
		status, err := r.gateway.OrderStatus(ctx, order.ProviderOrderID)
		if err != nil {
			logger.Warn().Err(err).Str("order_id", order.ProviderOrderID).Msg("failed to fetch order status")
			continue
		}

		switch {
		case status.Status == gateway.StatusPaid && status.PaymentID != "":
			if err := r.db.CloseStaleOrder(ctx, order.ProviderOrderID, types.OrderRefundRequired, status.PaymentID); err != nil {
				logger.Error().Err(err).Str("order_id", order.ProviderOrderID).Msg("failed to close paid order")
				continue
			}
			order.Status = types.OrderRefundRequired
			order.ProviderPaymentID = status.PaymentID

			logger.Warn().
				Str("order_id", order.ProviderOrderID).
				Str("payment_id", status.PaymentID).
				Str("book_id", order.CatalogEntryID).
				Str("buyer_id", order.BuyerID).
				Int64("amount", order.Amount).
				Msg("captured payment has no sale, refund required")
			orphaned = append(orphaned, order)

		case status.Status == gateway.StatusCreated || order.CreatedAt.Before(now.Add(-r.expiry)):
			if err := r.db.CloseStaleOrder(ctx, order.ProviderOrderID, types.OrderExpired, ""); err != nil {
				logger.Error().Err(err).Str("order_id", order.ProviderOrderID).Msg("failed to expire order")
				continue
			}
			logger.Info().Str("order_id", order.ProviderOrderID).Str("provider_status", status.Status).Msg("payment order expired")
		}
	}

	return orphaned, nil
}
