package storefront

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/loader"
	"go.uber.org/zap"
)

var (
	ErrVendorNotOpen    = errors.New("vendor page is not open")
	ErrCatalogNotLoaded = errors.New("vendor catalog has not loaded")
	ErrProductNotFound  = errors.New("product not found in vendor catalog")
)

// invalidator is implemented by catalog clients that cache responses.
type invalidator interface {
	Invalidate(ctx context.Context, key string) error
}

type Option func(*Storefront)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Storefront) { s.logger = logger }
}

// Storefront ties the screens together: vendor list, map, the single open
// vendor page, the cart and checkout.
type Storefront struct {
	catalog  client.CatalogClient
	cart     *cart.Store
	checkout *checkout.Flow
	logger   *zap.Logger

	vendors    *loader.Loader[[]domain.Vendor]
	mapVendors *loader.Loader[[]domain.MapVendor]

	mu   sync.Mutex
	page *VendorPage
}

func New(catalog client.CatalogClient, store *cart.Store, flow *checkout.Flow, opts ...Option) *Storefront {
	s := &Storefront{
		catalog:  catalog,
		cart:     store,
		checkout: flow,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.vendors = loader.New(catalog.ListVendors,
		loader.WithName("vendors"), loader.WithLogger(s.logger))
	s.mapVendors = loader.New(catalog.ListVendorsForMap,
		loader.WithName("map"), loader.WithLogger(s.logger))
	return s
}

func (s *Storefront) Cart() *cart.Store {
	return s.cart
}

func (s *Storefront) Checkout() *checkout.Flow {
	return s.checkout
}

func (s *Storefront) Vendors() *loader.Loader[[]domain.Vendor] {
	return s.vendors
}

func (s *Storefront) MapVendors() *loader.Loader[[]domain.MapVendor] {
	return s.mapVendors
}

func (s *Storefront) ReloadVendors(ctx context.Context) (<-chan struct{}, error) {
	if s.vendors.State().Status.IsSettled() {
		s.invalidate(ctx, client.VendorsKey)
	}
	return s.vendors.Reload(ctx)
}

func (s *Storefront) ReloadMap(ctx context.Context) (<-chan struct{}, error) {
	if s.mapVendors.State().Status.IsSettled() {
		s.invalidate(ctx, client.MapKey)
	}
	return s.mapVendors.Reload(ctx)
}

// MapRegion picks the map window: around the user when their position is
// known, else around the first vendor once the map has loaded, else the
// default region.
func (s *Storefront) MapRegion(user *domain.Coordinates) domain.Region {
	if user != nil {
		return domain.RegionAround(*user)
	}
	if vendors, ok := s.mapVendors.State().Loaded(); ok && len(vendors) > 0 {
		return domain.RegionAround(vendors[0].Position())
	}
	return domain.DefaultRegion
}

// OpenVendor makes id the open vendor page and starts loading it. Opening the
// page that is already open reuses it; opening another one detaches the old
// page so its late result is dropped.
func (s *Storefront) OpenVendor(ctx context.Context, id domain.ID) (*VendorPage, <-chan struct{}) {
	s.mu.Lock()
	page := s.page
	if page == nil || page.ID() != id {
		if page != nil {
			page.close()
			s.logger.Debug("vendor page closed", zap.String("vendor_id", page.ID().String()))
		}
		fetch := func(ctx context.Context) (domain.VendorDetail, error) {
			return s.catalog.GetVendorDetail(ctx, id)
		}
		l := loader.New(fetch,
			loader.WithName(fmt.Sprintf("vendor:%s", id)), loader.WithLogger(s.logger))
		page = newVendorPage(id, l, func(ctx context.Context) {
			s.invalidate(ctx, client.VendorKey(id))
		})
		s.page = page
	}
	s.mu.Unlock()

	return page, page.loader.Start(ctx)
}

// CurrentVendor returns the open page, if any.
func (s *Storefront) CurrentVendor() (*VendorPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page, s.page != nil
}

// Vendor returns the open page when it is the one for id.
func (s *Storefront) Vendor(id domain.ID) (*VendorPage, error) {
	page, ok := s.CurrentVendor()
	if !ok || page.ID() != id {
		return nil, ErrVendorNotOpen
	}
	return page, nil
}

func (s *Storefront) CloseVendor() {
	s.mu.Lock()
	page := s.page
	s.page = nil
	s.mu.Unlock()

	if page != nil {
		page.close()
	}
}

// AddToCart adds a product from the open vendor's loaded catalog. The price is
// the one the catalog shows now.
func (s *Storefront) AddToCart(vendorID, productID domain.ID, quantity int) error {
	page, err := s.Vendor(vendorID)
	if err != nil {
		return err
	}
	view, ok := page.View()
	if !ok {
		return ErrCatalogNotLoaded
	}
	product, ok := view.Product(productID)
	if !ok {
		return ErrProductNotFound
	}
	if err := s.cart.Add(product, quantity); err != nil {
		return err
	}

	s.logger.Debug("added to cart",
		zap.String("vendor_id", vendorID.String()),
		zap.String("product_id", productID.String()),
		zap.Int("quantity", quantity))
	return nil
}

func (s *Storefront) invalidate(ctx context.Context, key string) {
	inv, ok := s.catalog.(invalidator)
	if !ok {
		return
	}
	if err := inv.Invalidate(ctx, key); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
