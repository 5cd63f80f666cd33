// Package api assembles the services into the HTTP surface.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/approval"
	"github.com/ksred/pageturn-api/internal/auth"
	"github.com/ksred/pageturn-api/internal/catalog"
	"github.com/ksred/pageturn-api/internal/config"
	"github.com/ksred/pageturn-api/internal/gateway"
	"github.com/ksred/pageturn-api/internal/listing"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/payment"
	"github.com/ksred/pageturn-api/internal/settlement"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/ksred/pageturn-api/pkg/middleware"
	"gorm.io/gorm"
)

// Services holds everything the routes dispatch to
type Services struct {
	Auth       *auth.Service
	Listing    *listing.Service
	Catalog    *catalog.Service
	Approval   *approval.Service
	Payment    *payment.Service
	Settlement *settlement.Service
}

// NewServices wires the domain services over one database, gateway and notifier
func NewServices(db *gorm.DB, cfg *config.Config, gw gateway.Gateway, notifier notify.Notifier) *Services {
	return &Services{
		Auth:       auth.NewService(cfg.JWTSecret),
		Listing:    listing.NewService(db),
		Catalog:    catalog.NewService(db),
		Approval:   approval.NewService(db, notifier),
		Payment:    payment.NewService(db, gw, cfg.Gateway),
		Settlement: settlement.NewService(db, cfg.Gateway.Secret, notifier),
	}
}

// NewRouter builds the gin engine with every route registered
func NewRouter(s *Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())
	setupRoutes(router, s)
	return router
}

// setupRoutes configures all API endpoints and their handlers
// Browse routes are public; everything else requires a bearer token and
// the review endpoints additionally require the admin role.
func setupRoutes(router *gin.Engine, s *Services) {
	listingHandlers := listing.NewGinHandlers(s.Listing)
	catalogHandlers := catalog.NewGinHandlers(s.Catalog)
	approvalHandlers := approval.NewGinHandlers(s.Approval)
	paymentHandlers := payment.NewGinHandlers(s.Payment)
	settlementHandlers := settlement.NewGinHandlers(s.Settlement)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		books := api.Group("/books")
		{
			books.GET("/dashboard", middleware.RateLimit(), catalogHandlers.DashboardHandler())
			books.GET("/category/:category", middleware.RateLimit(), catalogHandlers.CategoryHandler())
			books.GET("/:id", middleware.RateLimit(), catalogHandlers.GetHandler())
		}

		user := api.Group("/books")
		user.Use(middleware.JWTAuth(s.Auth), middleware.RateLimit())
		{
			user.POST("/sell", listingHandlers.SubmitHandler())
			user.PUT("/update/:id", listingHandlers.UpdateHandler())
			user.DELETE("/delete/:id", listingHandlers.DeleteHandler())
			user.GET("/mine/pending", listingHandlers.MineHandler(types.ListingPending))
			user.GET("/mine/rejected", listingHandlers.MineHandler(types.ListingRejected))
			user.GET("/mine/approved", catalogHandlers.MineHandler())
			user.GET("/sold", settlementHandlers.SoldHandler())
			user.GET("/bought", settlementHandlers.BoughtHandler())
		}

		admin := api.Group("/books")
		admin.Use(middleware.JWTAuth(s.Auth), middleware.RequireAdmin())
		{
			admin.GET("/pending", listingHandlers.PendingHandler())
			admin.PUT("/approveBook/:id", approvalHandlers.ApproveHandler())
			admin.PUT("/rejectBook/:id", approvalHandlers.RejectHandler())
		}

		payments := api.Group("/payments")
		payments.Use(middleware.JWTAuth(s.Auth), middleware.RateLimit())
		{
			payments.POST("/create-order", paymentHandlers.CreateOrderHandler())
			payments.GET("/status/:orderId", paymentHandlers.StatusHandler())
			payments.POST("/verify", settlementHandlers.VerifyHandler())
		}
	}
}
