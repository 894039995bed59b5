package checkout

import (
	"context"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
)

type mockSubmitter struct {
	mu     sync.Mutex
	orders []Order
	err    error
	// block, when set, holds Submit until it is closed
	block chan struct{}
}

func (m *mockSubmitter) Submit(_ context.Context, order Order) (Confirmation, error) {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
	if m.err != nil {
		return Confirmation{}, m.err
	}
	return Confirmation{OrderID: order.ID}, nil
}

func (m *mockSubmitter) submitted() []Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Order(nil), m.orders...)
}

type mockWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (m *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, msgs...)
	return nil
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

var _ Cart = (*fakeCart)(nil)

type fakeCart struct {
	mu       sync.Mutex
	snapshot domain.CartSnapshot
	cleared  int
}

func (c *fakeCart) Snapshot() domain.CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *fakeCart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Items = nil
	c.cleared++
}
