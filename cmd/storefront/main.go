package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer l.Sync()
	zap.ReplaceGlobals(l)

	if err := run(cfg, l); err != nil {
		l.Fatal("storefront stopped", zap.Error(err))
	}
	l.Info("server exited")
}

func run(cfg config.Config, l *zap.Logger) error {
	catalog, closeCatalog, err := newCatalogClient(cfg, l)
	if err != nil {
		return err
	}
	defer closeCatalog()

	submitter, closeSubmitter := newSubmitter(cfg, l)
	defer closeSubmitter()

	store := cart.NewStore(cart.WithShippingFee(cfg.ShippingFee), cart.WithLogger(l))
	flow := checkout.NewFlow(store, submitter, l)
	sf := storefront.New(catalog, store, flow, storefront.WithLogger(l))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(sf, l, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		l.Info("storefront starting", zap.String("port", cfg.HTTPPort), zap.String("catalog", cfg.CatalogBaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	l.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// newCatalogClient builds the upstream client, cached in Redis when REDIS_ADDR
// is set.
func newCatalogClient(cfg config.Config, l *zap.Logger) (client.CatalogClient, func(), error) {
	base, err := client.NewClient("catalog", cfg.CatalogBaseURL, client.NewHTTPClient(cfg.UpstreamTimeout))
	if err != nil {
		return nil, nil, err
	}
	breaker := circuitbreaker.New[[]byte](circuitbreaker.Settings{
		Name:        "catalog",
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
		Logger:      l,
	})
	httpClient := client.NewHTTPCatalogClient(base, l, client.WithBreaker(breaker))

	if cfg.RedisAddr == "" {
		l.Info("catalog cache disabled")
		return httpClient, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// the cache is optional; run uncached rather than refuse to start
		l.Warn("redis unavailable, catalog cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		rdb.Close()
		return httpClient, func() {}, nil
	}

	l.Info("catalog cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CatalogCacheTTL))
	cached := client.NewCachedCatalogClient(httpClient, cache.NewRedisCache(rdb, cfg.CatalogCacheTTL), l)
	return cached, func() { rdb.Close() }, nil
}

// newSubmitter publishes orders to Kafka when KAFKA_BROKERS is set and
// confirms them locally otherwise.
func newSubmitter(cfg config.Config, l *zap.Logger) (checkout.Submitter, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		l.Info("kafka disabled, orders are confirmed locally")
		return checkout.NewLocalSubmitter(), func() {}
	}

	s := checkout.NewKafkaSubmitter(cfg.CheckoutTopic, l, cfg.KafkaBrokers...)
	l.Info("publishing orders to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.CheckoutTopic))
	return s, func() {
		if err := s.Close(); err != nil {
			l.Warn("kafka writer close failed", zap.Error(err))
		}
	}
}
