package client

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/cache"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	VendorsKey = "vendors"
	MapKey     = "vendors:map"
)

func VendorKey(id domain.ID) string {
	return "vendor:" + id.String()
}

var _ CatalogClient = (*CachedCatalogClient)(nil)

// CachedCatalogClient serves catalog reads from a cache and falls through to
// the wrapped client on a miss. Only successful responses are cached.
type CachedCatalogClient struct {
	next   CatalogClient
	cache  cache.CatalogCache
	sfg    singleflight.Group // one upstream fetch per key at a time
	logger *zap.Logger
}

func NewCachedCatalogClient(next CatalogClient, c cache.CatalogCache, logger *zap.Logger) *CachedCatalogClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedCatalogClient{next: next, cache: c, logger: logger}
}

func (c *CachedCatalogClient) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return cached(ctx, c, VendorsKey, c.next.ListVendors)
}

func (c *CachedCatalogClient) GetVendorDetail(ctx context.Context, vendorID domain.ID) (domain.VendorDetail, error) {
	return cached(ctx, c, VendorKey(vendorID), func(ctx context.Context) (domain.VendorDetail, error) {
		return c.next.GetVendorDetail(ctx, vendorID)
	})
}

func (c *CachedCatalogClient) ListVendorsForMap(ctx context.Context) ([]domain.MapVendor, error) {
	return cached(ctx, c, MapKey, c.next.ListVendorsForMap)
}

// Invalidate drops a cached entry so the next read goes upstream.
func (c *CachedCatalogClient) Invalidate(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

func cached[T any](ctx context.Context, c *CachedCatalogClient, key string, fetch func(context.Context) (T, error)) (T, error) {
	v, err, _ := c.sfg.Do(key, func() (interface{}, error) {
		var value T

		payload, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			if errDecode := json.Unmarshal(payload, &value); errDecode == nil {
				metrics.RecordCacheLookup(metrics.CacheHit)
				return value, nil
			}
			metrics.RecordCacheLookup(metrics.CacheError)
			c.logger.Warn("dropping undecodable cache entry", zap.String("key", key))
		case errors.Is(err, cache.ErrCacheMiss):
			metrics.RecordCacheLookup(metrics.CacheMiss)
		default:
			metrics.RecordCacheLookup(metrics.CacheError)
			c.logger.Warn("cache get error", zap.String("key", key), zap.Error(err)) // continue upstream
		}

		value, err = fetch(ctx)
		if err != nil {
			return value, err
		}

		payload, err = json.Marshal(value)
		if err != nil {
			c.logger.Warn("cache encode error", zap.String("key", key), zap.Error(err))
			return value, nil
		}
		if errSet := c.cache.Set(context.WithoutCancel(ctx), key, payload); errSet != nil {
			c.logger.Warn("cache set error", zap.String("key", key), zap.Error(errSet))
		}
		return value, nil
	})

	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
