package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/ksred/pageturn-api/internal/api"
	"github.com/ksred/pageturn-api/internal/config"
	"github.com/ksred/pageturn-api/internal/database"
	"github.com/ksred/pageturn-api/internal/gateway"
	"github.com/ksred/pageturn-api/internal/notify"
	"github.com/ksred/pageturn-api/internal/payment"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the marketplace API with graceful shutdown support
func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	gw := newGateway(cfg)
	notifier, stopNotifier := newNotifier(workerCtx, cfg, notify.NewDeliverer(
		notify.NewGormDirectory(db),
		notify.NewMailer(cfg.Mail),
		cfg.Mail.ReplyTo,
	))
	defer stopNotifier()

	// Flag captured payments that never became a sale
	reconciler := payment.NewReconciler(payment.NewDatabase(db), gw)
	go reconciler.Start(workerCtx)

	router := api.NewRouter(api.NewServices(db, cfg, gw, notifier))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().Str("port", cfg.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("Server forced to shutdown")
	}

	workerCancel()
	zlog.Info().Msg("Server exiting")
}

func newGateway(cfg *config.Config) gateway.Gateway {
	if cfg.Gateway.Mode == "mock" {
		zlog.Warn().Msg("Using in-memory mock payment gateway")
		return gateway.NewMockProvider(cfg.Gateway.Secret)
	}
	return gateway.NewRazorpay(cfg.Gateway.KeyID, cfg.Gateway.Secret)
}

// newNotifier builds the configured notification backend. The returned func
// releases it on shutdown.
func newNotifier(ctx context.Context, cfg *config.Config, deliverer *notify.Deliverer) (notify.Notifier, func()) {
	switch cfg.Notify.Backend {
	case "asynq":
		publisher := notify.NewQueuePublisher(cfg.Notify.RedisAddr)
		worker := notify.NewQueueWorker(cfg.Notify.RedisAddr, cfg.Notify.Workers, deliverer)
		if err := worker.Start(); err != nil {
			zlog.Fatal().Err(err).Msg("Failed to start notification worker")
		}
		dispatcher := notify.NewDispatcher(publisher, cfg.Notify.Workers, cfg.Notify.QueueSize)
		dispatcher.Start(ctx)
		zlog.Info().Str("redis", cfg.Notify.RedisAddr).Msg("Notifications queued through asynq")
		return dispatcher, func() {
			worker.Shutdown()
			_ = publisher.Close()
		}
	case "none":
		return notify.Nop{}, func() {}
	default:
		dispatcher := notify.NewDispatcher(deliverer, cfg.Notify.Workers, cfg.Notify.QueueSize)
		dispatcher.Start(ctx)
		return dispatcher, func() {}
	}
}
