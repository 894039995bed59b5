package storefront

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// fakeCatalog serves canned responses. When gated, every fetch blocks until
// release is called.
type fakeCatalog struct {
	mu          sync.Mutex
	vendors     []domain.Vendor
	mapVendors  []domain.MapVendor
	details     map[domain.ID]domain.VendorDetail
	err         error
	calls       map[string]int
	gate        chan struct{}
	invalidated []string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		details: make(map[domain.ID]domain.VendorDetail),
		calls:   make(map[string]int),
	}
}

func (f *fakeCatalog) hold() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeCatalog) release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

func (f *fakeCatalog) enter(name string) error {
	f.mu.Lock()
	f.calls[name]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeCatalog) setDetail(d domain.VendorDetail) {
	f.mu.Lock()
	f.details[d.Vendor.ID] = d
	f.mu.Unlock()
}

func (f *fakeCatalog) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) ListVendors(context.Context) ([]domain.Vendor, error) {
	if err := f.enter("vendors"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vendors, nil
}

func (f *fakeCatalog) GetVendorDetail(_ context.Context, id domain.ID) (domain.VendorDetail, error) {
	if err := f.enter("vendor:" + id.String()); err != nil {
		return domain.VendorDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return domain.VendorDetail{}, &domain.ApplicationError{Op: "get vendor detail", Message: "Dispensario no encontrado"}
	}
	return d, nil
}

func (f *fakeCatalog) ListVendorsForMap(context.Context) ([]domain.MapVendor, error) {
	if err := f.enter("map"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mapVendors, nil
}

func (f *fakeCatalog) Invalidate(_ context.Context, key string) error {
	f.mu.Lock()
	f.invalidated = append(f.invalidated, key)
	f.mu.Unlock()
	return nil
}
