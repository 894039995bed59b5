package domain

import (
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"nombre"`
}

type Product struct {
	ID          ID              `json:"id"`
	VendorID    ID              `json:"dispensario_id"`
	CategoryID  ID              `json:"categoria_id"`
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	Image       string          `json:"imagen"`
}

// Summary returns the description cut to max runes with a trailing ellipsis.
func (p Product) Summary(max int) string {
	if max <= 0 || utf8.RuneCountInString(p.Description) <= max {
		return p.Description
	}
	return string([]rune(p.Description)[:max]) + "..."
}

type Promotion struct {
	ID              ID              `json:"id"`
	Title           string          `json:"titulo"`
	Description     string          `json:"descripcion"`
	OriginalPrice   decimal.Decimal `json:"precio_original"`
	DiscountedPrice decimal.Decimal `json:"precio_descuento"`
	Image           string          `json:"imagen"`
}

// Valid reports whether the promotion actually discounts. The server does not
// enforce it.
func (p Promotion) Valid() bool {
	return p.DiscountedPrice.LessThanOrEqual(p.OriginalPrice)
}

// Savings is never negative, even for an invalid promotion.
func (p Promotion) Savings() decimal.Decimal {
	if !p.Valid() {
		return decimal.Zero
	}
	return p.OriginalPrice.Sub(p.DiscountedPrice)
}

// VendorDetail is everything one detail fetch returns for a vendor.
type VendorDetail struct {
	Vendor     Vendor      `json:"dispensario"`
	Promotions []Promotion `json:"promociones"`
	Products   []Product   `json:"productos"`
	Categories []Category  `json:"categorias"`
}
