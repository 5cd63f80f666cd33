package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		DBDriver:  "sqlite",
		JWTSecret: "secret",
		Gateway: Gateway{
			Mode:                    "razorpay",
			KeyID:                   "rzp_test_123",
			Secret:                  "shh",
			MerchantUPIID:           "pageturn@okaxis",
			MerchantDisplayName:     "PageTurn Books",
			MinimumChargeableAmount: 100,
			Currency:                "INR",
		},
		Notify: Notify{Backend: "inline"},
		Mail:   Mail{Provider: "log"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"bad key id", func(c *Config) { c.Gateway.KeyID = "key_123" }},
		{"missing gateway secret", func(c *Config) { c.Gateway.Secret = "" }},
		{"unknown gateway", func(c *Config) { c.Gateway.Mode = "stripe" }},
		{"missing upi id", func(c *Config) { c.Gateway.MerchantUPIID = "" }},
		{"zero minimum", func(c *Config) { c.Gateway.MinimumChargeableAmount = 0 }},
		{"unknown notify backend", func(c *Config) { c.Notify.Backend = "kafka" }},
		{"incomplete smtp", func(c *Config) { c.Mail.Provider = "smtp" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestIsTestMode(t *testing.T) {
	assert.True(t, Gateway{Mode: "mock"}.IsTestMode())
	assert.True(t, Gateway{Mode: "razorpay", MerchantUPIID: "success@razorpay"}.IsTestMode())
	assert.False(t, Gateway{Mode: "razorpay", MerchantUPIID: "pageturn@okaxis"}.IsTestMode())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PAYMENT_GATEWAY", "mock")
	t.Setenv("RAZORPAY_KEY_SECRET", "shh")
	t.Setenv("UPI_ID", "pageturn@okaxis")
	t.Setenv("UPI_MERCHANT_NAME", "PageTurn Books")
	t.Setenv("PAYMENT_MIN_AMOUNT", "200")
	t.Setenv("NOTIFY_WORKERS", "4")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, int64(200), cfg.Gateway.MinimumChargeableAmount)
	assert.Equal(t, "INR", cfg.Gateway.Currency)
	assert.Equal(t, 4, cfg.Notify.Workers)
	assert.Equal(t, 256, cfg.Notify.QueueSize)
	assert.Equal(t, "inline", cfg.Notify.Backend)

	t.Setenv("PAYMENT_MIN_AMOUNT", "lots")
	_, err = Load()
	assert.Error(t, err)
}
