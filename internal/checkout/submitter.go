package checkout

import (
	"context"
	"time"
)

// LocalSubmitter confirms every order immediately.
type LocalSubmitter struct {
	now func() time.Time
}

func NewLocalSubmitter() *LocalSubmitter {
	return &LocalSubmitter{now: time.Now}
}

func (s *LocalSubmitter) Submit(ctx context.Context, order Order) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	return Confirmation{OrderID: order.ID, ConfirmedAt: s.now()}, nil
}
