package storefront

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/loader"
)

// VendorPage is one opened vendor: its detail loader and, once loaded, the
// category-filtered catalog view.
type VendorPage struct {
	id         domain.ID
	loader     *loader.Loader[domain.VendorDetail]
	invalidate func(context.Context)

	mu         sync.RWMutex
	view       *catalog.View
	vendor     domain.Vendor
	promotions []domain.Promotion
}

func newVendorPage(id domain.ID, l *loader.Loader[domain.VendorDetail], invalidate func(context.Context)) *VendorPage {
	p := &VendorPage{id: id, loader: l, invalidate: invalidate}
	l.Subscribe(p.apply)
	return p
}

// apply builds the view on the first successful load and replaces its
// contents on later ones.
func (p *VendorPage) apply(state loader.State[domain.VendorDetail]) {
	detail, ok := state.Loaded()
	if !ok {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.view == nil {
		p.view = catalog.NewView(detail.Products, detail.Categories)
	} else {
		p.view.Replace(detail.Products, detail.Categories)
	}
	p.vendor = detail.Vendor
	p.promotions = append([]domain.Promotion(nil), detail.Promotions...)
}

func (p *VendorPage) ID() domain.ID {
	return p.id
}

func (p *VendorPage) State() loader.State[domain.VendorDetail] {
	return p.loader.State()
}

func (p *VendorPage) Wait(ctx context.Context) (loader.State[domain.VendorDetail], error) {
	return p.loader.Wait(ctx)
}

func (p *VendorPage) Retry(ctx context.Context) (<-chan struct{}, error) {
	return p.loader.Retry(ctx)
}

// Reload refetches the vendor detail, bypassing any cached copy. Lines already
// in the cart keep the price they were added at.
func (p *VendorPage) Reload(ctx context.Context) (<-chan struct{}, error) {
	if st := p.loader.State().Status; st.IsSettled() && p.invalidate != nil {
		p.invalidate(ctx)
	}
	return p.loader.Reload(ctx)
}

func (p *VendorPage) View() (*catalog.View, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.view, p.view != nil
}

func (p *VendorPage) Vendor() (domain.Vendor, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.vendor, p.view != nil
}

func (p *VendorPage) Promotions() []domain.Promotion {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]domain.Promotion(nil), p.promotions...)
}

func (p *VendorPage) SetCategory(id domain.ID) error {
	view, ok := p.View()
	if !ok {
		return ErrCatalogNotLoaded
	}
	return view.SetCategory(id)
}

func (p *VendorPage) ShowAll() error {
	view, ok := p.View()
	if !ok {
		return ErrCatalogNotLoaded
	}
	view.ShowAll()
	return nil
}

func (p *VendorPage) VisibleProducts() ([]domain.Product, error) {
	view, ok := p.View()
	if !ok {
		return nil, ErrCatalogNotLoaded
	}
	return view.VisibleProducts(), nil
}

func (p *VendorPage) close() {
	p.loader.Detach()
}
