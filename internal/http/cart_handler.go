package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
)

type CartHandler struct {
	storefront *storefront.Storefront
}

func NewCartHandler(sf *storefront.Storefront) *CartHandler {
	return &CartHandler{storefront: sf}
}

// QuantityText holds a quantity as it arrived, either a JSON number or the
// text the shopper typed. cart.ParseQuantity validates it.
type QuantityText string

func (q *QuantityText) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = QuantityText(s)
		return nil
	}
	*q = QuantityText(data)
	return nil
}

type AddItemRequestDTO struct {
	VendorID  domain.ID    `json:"vendor_id"`
	ProductID domain.ID    `json:"product_id"`
	Quantity  QuantityText `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity QuantityText `json:"quantity"`
}

type CartResponse struct {
	domain.CartSnapshot
	Lines int `json:"lines"`
	Units int `json:"units"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.VendorID == "" {
		respondError(w, http.StatusBadRequest, "invalid_vendor_id", "vendor_id is required")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	quantity, err := cart.ParseQuantity(string(req.Quantity))
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	if err := h.storefront.AddToCart(req.VendorID, req.ProductID, quantity); err != nil {
		handleStorefrontError(w, err)
		return
	}
	h.respondCart(w, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := domain.ID(chi.URLParam(r, "product_id"))

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	quantity, err := cart.ParseQuantity(string(req.Quantity))
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	if err := h.storefront.Cart().SetQuantity(productID, quantity); err != nil {
		handleStorefrontError(w, err)
		return
	}
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := domain.ID(chi.URLParam(r, "product_id"))

	// removing a product that is not in the cart is not an error
	h.storefront.Cart().Remove(productID)
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.storefront.Cart().Clear()
	h.respondCart(w, http.StatusOK)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, status int) {
	snapshot := h.storefront.Cart().Snapshot()
	respondJSON(w, status, CartResponse{
		CartSnapshot: snapshot,
		Lines:        len(snapshot.Items),
		Units:        snapshot.Units(),
	})
}

// handleStorefrontError converts validation errors to HTTP status codes.
func handleStorefrontError(w http.ResponseWriter, err error) {
	var httpStatus int
	var code string

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		httpStatus = http.StatusBadRequest
		code = "invalid_quantity"
	case errors.Is(err, cart.ErrInvalidProduct):
		httpStatus = http.StatusBadRequest
		code = "invalid_product"
	case errors.Is(err, catalog.ErrUnknownCategory):
		httpStatus = http.StatusBadRequest
		code = "unknown_category"
	case errors.Is(err, cart.ErrItemNotInCart):
		httpStatus = http.StatusNotFound
		code = "item_not_in_cart"
	case errors.Is(err, storefront.ErrProductNotFound):
		httpStatus = http.StatusNotFound
		code = "product_not_found"
	case errors.Is(err, storefront.ErrVendorNotOpen):
		httpStatus = http.StatusNotFound
		code = "vendor_not_open"
	case errors.Is(err, storefront.ErrCatalogNotLoaded):
		httpStatus = http.StatusConflict
		code = "catalog_not_loaded"
	case errors.Is(err, checkout.ErrEmptyCart):
		httpStatus = http.StatusBadRequest
		code = "empty_cart"
	case errors.Is(err, checkout.ErrIllegalTransition):
		httpStatus = http.StatusConflict
		code = "illegal_transition"
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, httpStatus, code, err.Error())
}
