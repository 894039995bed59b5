package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout status")
)

// Order is what gets handed to a Submitter.
type Order struct {
	ID          string              `json:"order_id"`
	Cart        domain.CartSnapshot `json:"cart"`
	SubmittedAt time.Time           `json:"submitted_at"`
}

type Confirmation struct {
	OrderID     string    `json:"order_id"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Submitter delivers an order to whoever confirms purchases.
type Submitter interface {
	Submit(ctx context.Context, order Order) (Confirmation, error)
}

// Cart is the part of the cart store the flow depends on.
type Cart interface {
	Snapshot() domain.CartSnapshot
	Clear()
}

type State struct {
	Status       Status        `json:"status"`
	OrderID      string        `json:"order_id,omitempty"`
	Confirmation *Confirmation `json:"confirmation,omitempty"`
	Reason       string        `json:"reason,omitempty"`
}

// Flow moves Idle -> Submitting -> Confirmed|Failed -> Idle. The cart is not
// locked while an order is submitting.
type Flow struct {
	cart      Cart
	submitter Submitter
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

func NewFlow(cart Cart, submitter Submitter, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flow{
		cart:      cart,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
		state:     State{Status: StatusIdle},
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit snapshots the cart and hands it to the submitter. On confirmation the
// cart is cleared; on failure the flow stays Failed until acknowledged. The
// error is only set when the submission could not start; a submitter failure
// is reported through the returned state.
func (f *Flow) Submit(ctx context.Context) (State, error) {
	f.mu.Lock()
	if f.state.Status != StatusIdle {
		current := f.state.Status
		f.mu.Unlock()
		return State{}, fmt.Errorf("%w: submit from %s", ErrIllegalTransition, current)
	}
	snapshot := f.cart.Snapshot()
	if snapshot.IsEmpty() {
		f.mu.Unlock()
		return State{}, ErrEmptyCart
	}
	order := Order{
		ID:          uuid.NewString(),
		Cart:        snapshot,
		SubmittedAt: f.now(),
	}
	f.state = State{Status: StatusSubmitting, OrderID: order.ID}
	f.mu.Unlock()

	f.logger.Info("submitting order",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(snapshot.Items)),
		zap.String("total", snapshot.Total.StringFixed(2)),
	)

	confirmation, err := f.submitter.Submit(ctx, order)

	f.mu.Lock()
	if err != nil {
		f.state = State{Status: StatusFailed, OrderID: order.ID, Reason: err.Error()}
		state := f.state
		f.mu.Unlock()
		metrics.RecordCheckout(StatusFailed.String())
		f.logger.Warn("order submission failed", zap.String("order_id", order.ID), zap.Error(err))
		return state, nil
	}
	f.state = State{Status: StatusConfirmed, OrderID: order.ID, Confirmation: &confirmation}
	state := f.state
	f.mu.Unlock()

	f.cart.Clear()
	metrics.RecordCheckout(StatusConfirmed.String())
	f.logger.Info("order confirmed", zap.String("order_id", order.ID))
	return state, nil
}

// Acknowledge returns a confirmed or failed flow to Idle.
func (f *Flow) Acknowledge() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Status.IsTerminal() {
		return fmt.Errorf("%w: acknowledge from %s", ErrIllegalTransition, f.state.Status)
	}
	f.state = State{Status: StatusIdle}
	return nil
}
