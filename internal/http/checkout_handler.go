package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/storefront"
)

type CheckoutHandler struct {
	storefront *storefront.Storefront
	timeout    time.Duration
}

func NewCheckoutHandler(sf *storefront.Storefront, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		storefront: sf,
		timeout:    timeout,
	}
}

func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.storefront.Checkout().State())
}

// Submit places the cart as an order. A submitter failure answers 502 with
// the FAILED state and its reason in the body.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	state, err := h.storefront.Checkout().Submit(ctx)
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	status := http.StatusCreated
	if state.Status == checkout.StatusFailed {
		status = http.StatusBadGateway
	}
	respondJSON(w, status, state)
}

func (h *CheckoutHandler) Acknowledge(w http.ResponseWriter, r *http.Request) {
	if err := h.storefront.Checkout().Acknowledge(); err != nil {
		handleStorefrontError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.storefront.Checkout().State())
}
