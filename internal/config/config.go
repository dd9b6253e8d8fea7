// Package config loads the storefront configuration from the environment,
// with a .env file picked up in development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything main() needs to wire the service.
type Config struct {
	HTTPAddr        string
	DatabasePath    string
	CheckoutLogPath string

	// RedisAddr enables the role/product cache and the realtime fan-out
	// when set; empty runs fully in-process.
	RedisAddr       string
	RealtimeChannel string

	JWTSecret     string
	TokenLifespan time.Duration

	// Payment simulation knobs. The defaults mirror the original flow:
	// a 2s fake gateway round trip with an 80% approval rate, and a 3s
	// success display before the cart clears.
	PaymentLatency      time.Duration
	PaymentApprovalRate float64
	SuccessDisplayDelay time.Duration
}

// Load reads the environment. A missing .env is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:            envOr("HTTP_ADDR", ":8080"),
		DatabasePath:        envOr("DB_PATH", "./data/storefront.db"),
		CheckoutLogPath:     envOr("CHECKOUT_LOG_PATH", "./data/checkout_logs.db"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RealtimeChannel:     envOr("REALTIME_CHANNEL", "storefront.changes"),
		JWTSecret:           envOr("JWT_SECRET", "dev-only-secret"),
		TokenLifespan:       durationOr("TOKEN_LIFESPAN", 24*time.Hour),
		PaymentLatency:      durationOr("PAYMENT_LATENCY", 2*time.Second),
		PaymentApprovalRate: floatOr("PAYMENT_APPROVAL_RATE", 0.80),
		SuccessDisplayDelay: durationOr("SUCCESS_DISPLAY_DELAY", 3*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func floatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
