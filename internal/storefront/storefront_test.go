package storefront

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/loader"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleDetail(id domain.ID) domain.VendorDetail {
	return domain.VendorDetail{
		Vendor: domain.Vendor{ID: id, Name: "Verde"},
		Promotions: []domain.Promotion{
			{ID: "pr1", Title: "2x1", OriginalPrice: price("20"), DiscountedPrice: price("15")},
		},
		Products: []domain.Product{
			{ID: "p1", VendorID: id, CategoryID: "A", Name: "Aceite", Price: price("10.00")},
			{ID: "p2", VendorID: id, CategoryID: "A", Name: "Bálsamo", Price: price("5.00")},
			{ID: "p3", VendorID: id, CategoryID: "B", Name: "Gomitas", Price: price("7.50")},
		},
		Categories: []domain.Category{{ID: "A", Name: "Aceites"}, {ID: "B", Name: "Comestibles"}},
	}
}

func newTestStorefront(t *testing.T) (*Storefront, *fakeCatalog) {
	t.Helper()
	fc := newFakeCatalog()
	fc.setDetail(sampleDetail("7"))
	store := cart.NewStore()
	flow := checkout.NewFlow(store, checkout.NewLocalSubmitter(), nil)
	return New(fc, store, flow), fc
}

func openLoaded(t *testing.T, s *Storefront, id domain.ID) *VendorPage {
	t.Helper()
	page, done := s.OpenVendor(context.Background(), id)
	<-done
	require.Equal(t, loader.StatusLoaded, page.State().Status)
	return page
}

func TestOpenVendor_BuildsViewWithDefaultCategory(t *testing.T) {
	s, _ := newTestStorefront(t)
	page := openLoaded(t, s, "7")

	view, ok := page.View()
	require.True(t, ok)
	assert.Equal(t, domain.ID("A"), view.ActiveCategory())

	visible, err := page.VisibleProducts()
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"p1", "p2"}, ids(visible))

	require.NoError(t, page.ShowAll())
	visible, _ = page.VisibleProducts()
	assert.Equal(t, []domain.ID{"p1", "p2", "p3"}, ids(visible))

	vendor, ok := page.Vendor()
	require.True(t, ok)
	assert.Equal(t, "Verde", vendor.Name)
	assert.Len(t, page.Promotions(), 1)
}

func TestOpenVendor_BeforeLoad(t *testing.T) {
	s, fc := newTestStorefront(t)
	fc.hold()

	page, done := s.OpenVendor(context.Background(), "7")
	assert.Equal(t, loader.StatusLoading, page.State().Status)

	_, err := page.VisibleProducts()
	assert.ErrorIs(t, err, ErrCatalogNotLoaded)
	assert.ErrorIs(t, page.SetCategory("A"), ErrCatalogNotLoaded)
	assert.ErrorIs(t, s.AddToCart("7", "p1", 1), ErrCatalogNotLoaded)

	fc.release()
	<-done
	_, err = page.VisibleProducts()
	assert.NoError(t, err)
}

func TestOpenVendor_SameVendorReusesPage(t *testing.T) {
	s, fc := newTestStorefront(t)
	first := openLoaded(t, s, "7")

	second, done := s.OpenVendor(context.Background(), "7")
	<-done

	assert.Same(t, first, second)
	assert.Equal(t, 1, fc.callCount("vendor:7"))
}

func TestOpenVendor_SwitchDiscardsLateResult(t *testing.T) {
	s, fc := newTestStorefront(t)
	fc.setDetail(sampleDetail("8"))
	fc.hold()

	old, oldDone := s.OpenVendor(context.Background(), "7")
	page, done := s.OpenVendor(context.Background(), "8")
	fc.release()
	<-oldDone
	<-done

	_, ok := old.View()
	assert.False(t, ok, "result for the closed page is dropped")

	current, ok := s.CurrentVendor()
	require.True(t, ok)
	assert.Same(t, page, current)
	assert.ErrorIs(t, s.AddToCart("7", "p1", 1), ErrVendorNotOpen)
}

func TestOpenVendor_FailureThenRetry(t *testing.T) {
	s, fc := newTestStorefront(t)
	fc.setErr(&domain.ApplicationError{Op: "get vendor detail", Message: "X"})

	page, done := s.OpenVendor(context.Background(), "7")
	<-done

	state := page.State()
	require.Equal(t, loader.StatusFailed, state.Status)
	assert.Equal(t, loader.FailureApplication, state.Failure.Kind)
	assert.Equal(t, "X", state.Failure.Message)

	fc.setErr(nil)
	retried, err := page.Retry(context.Background())
	require.NoError(t, err)
	<-retried

	assert.Equal(t, loader.StatusLoaded, page.State().Status)
	assert.Equal(t, 2, fc.callCount("vendor:7"))
}

func TestOpenVendor_TransportFailureMessage(t *testing.T) {
	s, fc := newTestStorefront(t)
	fc.setErr(&domain.TransportError{Op: "get vendor detail", Err: errors.New("dial tcp: refused")})

	page, done := s.OpenVendor(context.Background(), "7")
	<-done

	failure := page.State().Failure
	require.NotNil(t, failure)
	assert.Equal(t, loader.FailureTransport, failure.Kind)
	assert.Equal(t, loader.TransportMessage, failure.Message)
}

func TestAddToCart(t *testing.T) {
	s, _ := newTestStorefront(t)
	openLoaded(t, s, "7")

	require.NoError(t, s.AddToCart("7", "p1", 2))
	require.NoError(t, s.AddToCart("7", "p2", 1))

	assert.Equal(t, "25.00", s.Cart().Subtotal().StringFixed(2))
	assert.Equal(t, "30.00", s.Cart().Total().StringFixed(2))

	// products outside the active category can still be added
	require.NoError(t, s.AddToCart("7", "p3", 1))

	assert.ErrorIs(t, s.AddToCart("7", "nope", 1), ErrProductNotFound)
	assert.ErrorIs(t, s.AddToCart("7", "p1", 0), cart.ErrInvalidQuantity)
	assert.ErrorIs(t, s.AddToCart("9", "p1", 1), ErrVendorNotOpen)
}

func TestReload_DoesNotChangeCartPrices(t *testing.T) {
	s, fc := newTestStorefront(t)
	page := openLoaded(t, s, "7")
	require.NoError(t, s.AddToCart("7", "p1", 2))

	repriced := sampleDetail("7")
	repriced.Products[0].Price = price("99.00")
	fc.setDetail(repriced)

	done, err := page.Reload(context.Background())
	require.NoError(t, err)
	<-done

	view, _ := page.View()
	p1, ok := view.Product("p1")
	require.True(t, ok)
	assert.Equal(t, "99.00", p1.Price.StringFixed(2))

	line, ok := s.Cart().Item("p1")
	require.True(t, ok)
	assert.Equal(t, "10.00", line.UnitPrice.StringFixed(2))
	assert.Equal(t, "25.00", s.Cart().Total().StringFixed(2))

	assert.Contains(t, fc.invalidated, client.VendorKey("7"))
}

func TestReload_KeepsActiveCategory(t *testing.T) {
	s, _ := newTestStorefront(t)
	page := openLoaded(t, s, "7")
	require.NoError(t, page.SetCategory("B"))

	done, err := page.Reload(context.Background())
	require.NoError(t, err)
	<-done

	view, _ := page.View()
	assert.Equal(t, domain.ID("B"), view.ActiveCategory())
}

func TestSetCategory_Unknown(t *testing.T) {
	s, _ := newTestStorefront(t)
	page := openLoaded(t, s, "7")
	assert.ErrorIs(t, page.SetCategory("Z"), catalog.ErrUnknownCategory)
}

func TestVendors_DuplicateStartOneFetch(t *testing.T) {
	s, fc := newTestStorefront(t)
	fc.vendors = []domain.Vendor{{ID: "7"}}
	fc.hold()

	first := s.Vendors().Start(context.Background())
	second := s.Vendors().Start(context.Background())
	fc.release()
	<-first
	<-second

	assert.Equal(t, 1, fc.callCount("vendors"))
	vendors, ok := s.Vendors().State().Loaded()
	require.True(t, ok)
	assert.Len(t, vendors, 1)
}

func TestReloadVendors_Invalidates(t *testing.T) {
	s, fc := newTestStorefront(t)
	<-s.Vendors().Start(context.Background())

	done, err := s.ReloadVendors(context.Background())
	require.NoError(t, err)
	<-done

	assert.Equal(t, 2, fc.callCount("vendors"))
	assert.Equal(t, []string{client.VendorsKey}, fc.invalidated)
}

func TestReloadMap_NotSettled(t *testing.T) {
	s, fc := newTestStorefront(t)

	_, err := s.ReloadMap(context.Background())
	assert.ErrorIs(t, err, loader.ErrNotSettled)
	assert.Empty(t, fc.invalidated)
}

func TestMapRegion(t *testing.T) {
	s, fc := newTestStorefront(t)

	assert.Equal(t, domain.DefaultRegion, s.MapRegion(nil))

	fc.mapVendors = []domain.MapVendor{
		{Vendor: domain.Vendor{ID: "1"}, Latitude: 19.70, Longitude: -101.19},
		{Vendor: domain.Vendor{ID: "2"}, Latitude: 20.00, Longitude: -100.00},
	}
	<-s.MapVendors().Start(context.Background())

	region := s.MapRegion(nil)
	assert.Equal(t, 19.70, region.Latitude)
	assert.Equal(t, -101.19, region.Longitude)
	assert.Equal(t, domain.DefaultLatitudeDelta, region.LatitudeDelta)

	user := domain.Coordinates{Latitude: 1, Longitude: 2}
	assert.Equal(t, domain.RegionAround(user), s.MapRegion(&user))
}

func TestCloseVendor(t *testing.T) {
	s, _ := newTestStorefront(t)
	openLoaded(t, s, "7")

	s.CloseVendor()
	_, ok := s.CurrentVendor()
	assert.False(t, ok)
	assert.ErrorIs(t, s.AddToCart("7", "p1", 1), ErrVendorNotOpen)
}

func TestCheckoutAfterAddToCart(t *testing.T) {
	s, _ := newTestStorefront(t)
	openLoaded(t, s, "7")
	require.NoError(t, s.AddToCart("7", "p1", 1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	state, err := s.Checkout().Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusConfirmed, state.Status)
	assert.Equal(t, 0, s.Cart().Len())
}

func ids(products []domain.Product) []domain.ID {
	out := make([]domain.ID, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}
