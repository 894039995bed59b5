package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/circuitbreaker"
	"github.com/fjod/go_cart/storefront/pkg/metrics"
	"go.uber.org/zap"
)

const (
	vendorsPath      = "/api_dispensarios.php"
	vendorDetailPath = "/api_dispensario_detalle.php"
	vendorsMapPath   = "/api_dispensarios_mapa.php"

	// responses larger than this are treated as malformed
	maxBodyBytes = 8 << 20
)

// CatalogClient is the read-only remote catalog.
type CatalogClient interface {
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	GetVendorDetail(ctx context.Context, vendorID domain.ID) (domain.VendorDetail, error)
	ListVendorsForMap(ctx context.Context) ([]domain.MapVendor, error)
}

var _ CatalogClient = (*HTTPCatalogClient)(nil)

type HTTPCatalogClient struct {
	base    *Client
	logger  *zap.Logger
	breaker *circuitbreaker.Breaker[[]byte]
}

type CatalogOption func(*HTTPCatalogClient)

// WithBreaker routes upstream round trips through b. Only transport failures
// count against it; a non-success envelope is a completed call.
func WithBreaker(b *circuitbreaker.Breaker[[]byte]) CatalogOption {
	return func(c *HTTPCatalogClient) { c.breaker = b }
}

func NewHTTPCatalogClient(base *Client, logger *zap.Logger, opts ...CatalogOption) *HTTPCatalogClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &HTTPCatalogClient{base: base, logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPCatalogClient) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	const op = "list vendors"
	body, err := c.get(ctx, op, vendorsPath, "", "dispensarios")
	if err != nil {
		return nil, err
	}

	var vendors []domain.Vendor
	if err := decodeField(op, body, "dispensarios", &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (c *HTTPCatalogClient) GetVendorDetail(ctx context.Context, vendorID domain.ID) (domain.VendorDetail, error) {
	const op = "get vendor detail"
	query := url.Values{"id": {vendorID.String()}}.Encode()
	body, err := c.get(ctx, op, vendorDetailPath, query, "dispensario", "productos", "categorias")
	if err != nil {
		return domain.VendorDetail{}, err
	}

	var detail domain.VendorDetail
	for field, dst := range map[string]any{
		"dispensario": &detail.Vendor,
		"promociones": &detail.Promotions,
		"productos":   &detail.Products,
		"categorias":  &detail.Categories,
	} {
		if err := decodeField(op, body, field, dst); err != nil {
			return domain.VendorDetail{}, err
		}
	}

	for i := range detail.Products {
		if detail.Products[i].VendorID == "" {
			detail.Products[i].VendorID = vendorID
		}
	}
	if detail.Vendor.ID == "" {
		detail.Vendor.ID = vendorID
	}
	return detail, nil
}

func (c *HTTPCatalogClient) ListVendorsForMap(ctx context.Context) ([]domain.MapVendor, error) {
	const op = "list map vendors"
	body, err := c.get(ctx, op, vendorsMapPath, "", "dispensarios")
	if err != nil {
		return nil, err
	}

	var vendors []domain.MapVendor
	if err := decodeField(op, body, "dispensarios", &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

// get performs the request and returns a body whose envelope has already been
// validated.
func (c *HTTPCatalogClient) get(ctx context.Context, op, path, query string, required ...string) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, op, path, query)
	if err != nil {
		metrics.RecordUpstream(op, metrics.OutcomeTransport, time.Since(start))
		return nil, err
	}

	if err := checkEnvelope(op, body, required...); err != nil {
		if domain.IsApplication(err) {
			metrics.RecordUpstream(op, metrics.OutcomeApplication, time.Since(start))
			c.logger.Info("upstream reported failure", zap.String("op", op), zap.String("message", err.Error()))
		} else {
			metrics.RecordUpstream(op, metrics.OutcomeTransport, time.Since(start))
			c.logger.Warn("upstream payload rejected", zap.String("op", op), zap.Error(err))
		}
		return nil, err
	}
	metrics.RecordUpstream(op, metrics.OutcomeSuccess, time.Since(start))
	return body, nil
}

func (c *HTTPCatalogClient) fetch(ctx context.Context, op, path, query string) ([]byte, error) {
	if c.breaker == nil {
		return c.roundTrip(ctx, op, path, query)
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, op, path, query)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	return body, err
}

func (c *HTTPCatalogClient) roundTrip(ctx context.Context, op, path, query string) ([]byte, error) {
	resp, err := c.base.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("op", op), zap.Error(err))
		return nil, &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("upstream returned non-2xx",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode))
		return nil, &domain.TransportError{Op: op, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return body, nil
}
