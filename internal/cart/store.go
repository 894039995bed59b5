package cart

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MaxQuantity caps the units of one product in a cart line.
const MaxQuantity = 99

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrInvalidProduct  = errors.New("product cannot be added to the cart")
	ErrItemNotInCart   = errors.New("item not in cart")
)

// DefaultShippingFee is the flat fee added to every order.
var DefaultShippingFee = decimal.RequireFromString("5.00")

type Observer func(domain.CartSnapshot)

type Option func(*Store)

func WithShippingFee(fee decimal.Decimal) Option {
	return func(s *Store) { s.shippingFee = fee }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the shopper's cart. Lines are kept in insertion order and keyed by
// product id; totals are always recomputed from the lines.
type Store struct {
	mu          sync.Mutex
	items       []domain.LineItem
	index       map[domain.ID]int
	shippingFee decimal.Decimal
	seq         uint64

	// notifyMu orders deliveries; delivered is the seq of the last one.
	notifyMu  sync.Mutex
	delivered uint64

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	logger *zap.Logger
	now    func() time.Time
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		index:       make(map[domain.ID]int),
		shippingFee: DefaultShippingFee,
		observers:   make(map[int]Observer),
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add merges quantity into the product's line, or appends a new line with the
// product's current name, price and image.
func (s *Store) Add(product domain.Product, quantity int) error {
	if err := validQuantity(quantity); err != nil {
		return err
	}
	if product.ID == "" || product.Price.IsNegative() {
		return ErrInvalidProduct
	}

	s.mu.Lock()
	if i, ok := s.index[product.ID]; ok {
		if s.items[i].Quantity > MaxQuantity-quantity {
			current := s.items[i].Quantity
			s.mu.Unlock()
			return fmt.Errorf("%w: %d already in cart, adding %d", ErrInvalidQuantity, current, quantity)
		}
		s.items[i].Quantity += quantity
		s.logger.Debug("cart line incremented",
			zap.String("product_id", product.ID.String()),
			zap.Int("quantity", s.items[i].Quantity),
		)
	} else {
		s.items = append(s.items, domain.LineItem{
			ProductID: product.ID,
			VendorID:  product.VendorID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Image:     product.Image,
			Quantity:  quantity,
			AddedAt:   s.now(),
		})
		s.index[product.ID] = len(s.items) - 1
		s.logger.Debug("cart line added",
			zap.String("product_id", product.ID.String()),
			zap.Int("quantity", quantity),
		)
	}
	snapshot, seq := s.commitLocked()
	s.mu.Unlock()

	s.notify(seq, snapshot)
	return nil
}

// Remove deletes the product's line. Removing an absent product is a no-op.
func (s *Store) Remove(productID domain.ID) {
	s.mu.Lock()
	i, ok := s.index[productID]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.reindexLocked()
	snapshot, seq := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("cart line removed", zap.String("product_id", productID.String()))
	s.notify(seq, snapshot)
}

// SetQuantity replaces the quantity of an existing line. Going below 1 or
// above MaxQuantity is rejected; callers that want the line gone must call
// Remove.
func (s *Store) SetQuantity(productID domain.ID, quantity int) error {
	if err := validQuantity(quantity); err != nil {
		return err
	}

	s.mu.Lock()
	i, ok := s.index[productID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrItemNotInCart, productID)
	}
	if s.items[i].Quantity == quantity {
		s.mu.Unlock()
		return nil
	}
	s.items[i].Quantity = quantity
	snapshot, seq := s.commitLocked()
	s.mu.Unlock()

	s.notify(seq, snapshot)
	return nil
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	if len(s.items) == 0 {
		s.mu.Unlock()
		return
	}
	s.items = nil
	s.index = make(map[domain.ID]int)
	snapshot, seq := s.commitLocked()
	s.mu.Unlock()

	s.logger.Debug("cart cleared")
	s.notify(seq, snapshot)
}

func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Store) Item(productID domain.ID) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[productID]; ok {
		return s.items[i], true
	}
	return domain.LineItem{}, false
}

// Len is the number of lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Count is the number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked().Add(s.shippingFee)
}

func (s *Store) ShippingFee() decimal.Decimal {
	return s.shippingFee
}

func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers an observer that receives the new cart state after every
// change, before the mutating call returns. Deliveries are serialized and never
// go backwards: a snapshot older than one already delivered is dropped.
// Observers must not mutate the store.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, it := range s.items {
		subtotal = subtotal.Add(it.LineTotal())
	}
	return subtotal
}

// commitLocked stamps a mutation and captures the resulting state.
func (s *Store) commitLocked() (domain.CartSnapshot, uint64) {
	s.seq++
	return s.snapshotLocked(), s.seq
}

func (s *Store) snapshotLocked() domain.CartSnapshot {
	subtotal := s.subtotalLocked()
	return domain.CartSnapshot{
		Items:       slices.Clone(s.items),
		Subtotal:    subtotal,
		ShippingFee: s.shippingFee,
		Total:       subtotal.Add(s.shippingFee),
		CapturedAt:  s.now(),
	}
}

func (s *Store) reindexLocked() {
	clear(s.index)
	for i, it := range s.items {
		s.index[it.ProductID] = i
	}
}

func (s *Store) notify(seq uint64, snapshot domain.CartSnapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	observers := make([]Observer, len(ids))
	for i, id := range ids {
		observers[i] = s.observers[id]
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}
