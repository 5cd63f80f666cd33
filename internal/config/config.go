package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Gateway holds the payment provider credentials and merchant identity.
type Gateway struct {
	Mode                    string // razorpay or mock
	KeyID                   string
	Secret                  string
	MerchantUPIID           string
	MerchantDisplayName     string
	MinimumChargeableAmount int64 // minor units
	Currency                string
}

// Notify selects how notifications leave the request path.
type Notify struct {
	Backend   string // inline, asynq or none
	RedisAddr string
	Workers   int
	QueueSize int
}

// Mail configures outbound email delivery.
type Mail struct {
	Provider string // smtp or log
	Host     string
	Port     string
	Username string
	Password string
	From     string
	ReplyTo  string
}

type Config struct {
	Env       string
	Port      string
	Debug     bool
	DBDriver  string
	DBDSN     string
	JWTSecret string
	Gateway   Gateway
	Notify    Notify
	Mail      Mail
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Env:       getenv("ENV", "development"),
		Port:      getenv("PORT", "8080"),
		Debug:     os.Getenv("DEBUG") == "true",
		DBDriver:  getenv("DB_DRIVER", "sqlite"),
		DBDSN:     getenv("DB_DSN", "pageturn.db"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		Gateway: Gateway{
			Mode:                getenv("PAYMENT_GATEWAY", "razorpay"),
			KeyID:               os.Getenv("RAZORPAY_KEY_ID"),
			Secret:              os.Getenv("RAZORPAY_KEY_SECRET"),
			MerchantUPIID:       os.Getenv("UPI_ID"),
			MerchantDisplayName: os.Getenv("UPI_MERCHANT_NAME"),
			Currency:            getenv("PAYMENT_CURRENCY", "INR"),
		},
		Notify: Notify{
			Backend:   getenv("NOTIFY_BACKEND", "inline"),
			RedisAddr: getenv("REDIS_ADDR", "127.0.0.1:6379"),
		},
		Mail: Mail{
			Provider: getenv("MAIL_PROVIDER", "log"),
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getenv("SMTP_PORT", "465"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("SMTP_FROM"),
			ReplyTo:  os.Getenv("MAIL_REPLY_TO"),
		},
	}

	var err error
	if cfg.Gateway.MinimumChargeableAmount, err = getint64("PAYMENT_MIN_AMOUNT", 100); err != nil {
		return nil, err
	}
	workers, err := getint64("NOTIFY_WORKERS", 2)
	if err != nil {
		return nil, err
	}
	cfg.Notify.Workers = int(workers)
	queueSize, err := getint64("NOTIFY_QUEUE_SIZE", 256)
	if err != nil {
		return nil, err
	}
	cfg.Notify.QueueSize = int(queueSize)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("db_driver", cfg.DBDriver).
		Str("gateway", cfg.Gateway.Mode).
		Str("notify", cfg.Notify.Backend).
		Str("mail", cfg.Mail.Provider).
		Msg("configuration loaded")

	return cfg, nil
}

// Validate checks the settings the payment flow cannot run without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.Gateway.Mode {
	case "razorpay":
		if !strings.HasPrefix(c.Gateway.KeyID, "rzp_") {
			return errors.New("invalid Razorpay key id format")
		}
		if c.Gateway.Secret == "" {
			return errors.New("RAZORPAY_KEY_SECRET is required")
		}
	case "mock":
		if c.Gateway.Secret == "" {
			return errors.New("RAZORPAY_KEY_SECRET is required to sign mock payments")
		}
	default:
		return fmt.Errorf("unsupported PAYMENT_GATEWAY %q", c.Gateway.Mode)
	}
	if c.Gateway.MerchantUPIID == "" || c.Gateway.MerchantDisplayName == "" {
		return errors.New("UPI_ID and UPI_MERCHANT_NAME are required")
	}
	if c.Gateway.MinimumChargeableAmount < 1 {
		return errors.New("PAYMENT_MIN_AMOUNT must be positive")
	}
	switch c.Notify.Backend {
	case "inline", "asynq", "none":
	default:
		return fmt.Errorf("unsupported NOTIFY_BACKEND %q", c.Notify.Backend)
	}
	if c.Mail.Provider == "smtp" && (c.Mail.Host == "" || c.Mail.Username == "" || c.Mail.Password == "" || c.Mail.From == "") {
		return errors.New("smtp not configured: set SMTP_HOST, SMTP_USERNAME, SMTP_PASSWORD, SMTP_FROM")
	}
	return nil
}

// IsTestMode reports whether the merchant handle points at the provider sandbox.
func (g Gateway) IsTestMode() bool {
	return g.Mode == "mock" || strings.Contains(g.MerchantUPIID, "@razorpay")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
