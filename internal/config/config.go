package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Remote catalog
	CatalogBaseURL     string
	UpstreamTimeout    time.Duration
	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	CatalogCacheTTL    time.Duration

	ShippingFee decimal.Decimal

	// Optional infrastructure; empty disables it.
	RedisAddr     string
	RedisPassword string
	KafkaBrokers  []string
	CheckoutTopic string

	LogLevel string
}

// Load reads the environment. Malformed durations and counts fall back to
// their defaults; a malformed shipping fee is an error since it changes every
// total.
func Load() (Config, error) {
	fee, err := decimal.NewFromString(getenv("SHIPPING_FEE", "5.00"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SHIPPING_FEE: %w", err)
	}
	if fee.IsNegative() {
		return Config{}, fmt.Errorf("invalid SHIPPING_FEE: must not be negative")
	}

	cfg := Config{
		HTTPPort:        getenv("HTTP_PORT", "8080"),
		RequestTimeout:  parseDuration(getenv("REQUEST_TIMEOUT", "30s"), 30*time.Second),
		ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),

		CatalogBaseURL:     getenv("CATALOG_BASE_URL", "http://localhost:8000"),
		UpstreamTimeout:    parseDuration(getenv("UPSTREAM_TIMEOUT", "10s"), 10*time.Second),
		BreakerMaxFailures: parseUint32(getenv("BREAKER_MAX_FAILURES", "5"), 5),
		BreakerOpenTimeout: parseDuration(getenv("BREAKER_OPEN_TIMEOUT", "30s"), 30*time.Second),
		CatalogCacheTTL:    parseDuration(getenv("CATALOG_CACHE_TTL", "5m"), 5*time.Minute),

		ShippingFee: fee,

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		KafkaBrokers:  splitCSV(getenv("KAFKA_BROKERS", "")),
		CheckoutTopic: getenv("CHECKOUT_TOPIC", "checkout-submitted"),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(v string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func parseUint32(v string, def uint32) uint32 {
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return def
	}
	return uint32(n)
}
