package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem keeps the product fields as they were when the product was added,
// so a later catalog refresh never changes a line already in the cart.
type LineItem struct {
	ProductID ID              `json:"product_id"`
	VendorID  ID              `json:"vendor_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Image     string          `json:"image"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartSnapshot represents the full cart state at one point in time
type CartSnapshot struct {
	Items       []LineItem      `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
	CapturedAt  time.Time       `json:"captured_at"`
}

func (s CartSnapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Units is the number of units across all lines.
func (s CartSnapshot) Units() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}
