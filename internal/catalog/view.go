package catalog

import (
	"errors"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// AllCategories is the filter value that shows every product.
const AllCategories domain.ID = ""

var ErrUnknownCategory = errors.New("category is not offered by this vendor")

// View is the category-filtered window over one vendor's catalog. The product
// and category sets are copied on construction and never modified by filtering.
type View struct {
	mu         sync.RWMutex
	products   []domain.Product
	categories []domain.Category
	active     domain.ID
}

// NewView selects the first category in server order, or all products when
// the vendor has no categories.
func NewView(products []domain.Product, categories []domain.Category) *View {
	v := &View{}
	v.load(products, categories)
	v.active = v.defaultCategory()
	return v
}

func (v *View) load(products []domain.Product, categories []domain.Category) {
	v.products = append([]domain.Product(nil), products...)
	v.categories = append([]domain.Category(nil), categories...)
}

func (v *View) defaultCategory() domain.ID {
	if len(v.categories) > 0 {
		return v.categories[0].ID
	}
	return AllCategories
}

func (v *View) hasCategory(id domain.ID) bool {
	for _, c := range v.categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// SetCategory changes the active filter. AllCategories shows everything.
func (v *View) SetCategory(id domain.ID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if id != AllCategories && !v.hasCategory(id) {
		return ErrUnknownCategory
	}
	v.active = id
	return nil
}

func (v *View) ShowAll() {
	v.mu.Lock()
	v.active = AllCategories
	v.mu.Unlock()
}

func (v *View) ActiveCategory() domain.ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.active
}

// VisibleProducts keeps the order the catalog was loaded in.
func (v *View) VisibleProducts() []domain.Product {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.active == AllCategories {
		return append([]domain.Product(nil), v.products...)
	}
	visible := make([]domain.Product, 0, len(v.products))
	for _, p := range v.products {
		if p.CategoryID == v.active {
			visible = append(visible, p)
		}
	}
	return visible
}

func (v *View) Products() []domain.Product {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Product(nil), v.products...)
}

func (v *View) Categories() []domain.Category {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]domain.Category(nil), v.categories...)
}

func (v *View) Product(id domain.ID) (domain.Product, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, p := range v.products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Replace swaps in a reloaded catalog. The active category survives when the
// vendor still offers it, otherwise the default is applied again.
func (v *View) Replace(products []domain.Product, categories []domain.Category) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.load(products, categories)
	if v.active != AllCategories && !v.hasCategory(v.active) {
		v.active = v.defaultCategory()
	}
}
