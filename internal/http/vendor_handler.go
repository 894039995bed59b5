package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/loader"
	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const summaryLength = 50

type VendorHandler struct {
	storefront *storefront.Storefront
	timeout    time.Duration
}

func NewVendorHandler(sf *storefront.Storefront, timeout time.Duration) *VendorHandler {
	return &VendorHandler{
		storefront: sf,
		timeout:    timeout,
	}
}

type StarsDTO struct {
	Full  int `json:"full"`
	Half  int `json:"half"`
	Empty int `json:"empty"`
}

type VendorDTO struct {
	domain.Vendor
	Stars StarsDTO `json:"stars"`
}

type ProductDTO struct {
	domain.Product
	Summary string `json:"summary"`
}

type PromotionDTO struct {
	domain.Promotion
	Savings decimal.Decimal `json:"savings"`
}

type VendorPageDTO struct {
	Vendor         VendorDTO         `json:"vendor"`
	Promotions     []PromotionDTO    `json:"promotions"`
	Categories     []domain.Category `json:"categories"`
	ActiveCategory domain.ID         `json:"active_category"`
	Products       []ProductDTO      `json:"products"`
}

type MapDTO struct {
	Vendors []domain.MapVendor `json:"vendors"`
}

type MapResponse struct {
	LoadResponse[MapDTO]
	Region domain.Region `json:"region"`
}

type SetCategoryRequestDTO struct {
	// empty selects every category
	CategoryID domain.ID `json:"category_id"`
}

func (h *VendorHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendors := h.storefront.Vendors()
	wait(ctx, vendors.Start(r.Context()))
	h.respondVendors(w)
}

func (h *VendorHandler) RetryVendors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	done, err := h.storefront.Vendors().Retry(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	h.respondVendors(w)
}

func (h *VendorHandler) ReloadVendors(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	done, err := h.storefront.ReloadVendors(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	h.respondVendors(w)
}

func (h *VendorHandler) respondVendors(w http.ResponseWriter) {
	state := h.storefront.Vendors().State()
	respondJSON(w, statusFor(state.Status), loadResponse(state, func(vendors []domain.Vendor) []VendorDTO {
		out := make([]VendorDTO, len(vendors))
		for i, v := range vendors {
			out[i] = toVendorDTO(v)
		}
		return out
	}))
}

func (h *VendorHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID, ok := vendorIDParam(w, r)
	if !ok {
		return
	}

	page, done := h.storefront.OpenVendor(r.Context(), vendorID)
	wait(ctx, done)
	respondPage(w, page)
}

func (h *VendorHandler) SetCategory(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := vendorIDParam(w, r)
	if !ok {
		return
	}

	var req SetCategoryRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	page, err := h.storefront.Vendor(vendorID)
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	if req.CategoryID == catalog.AllCategories {
		err = page.ShowAll()
	} else {
		err = page.SetCategory(req.CategoryID)
	}
	if err != nil {
		handleStorefrontError(w, err)
		return
	}
	respondPage(w, page)
}

func (h *VendorHandler) RetryVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID, ok := vendorIDParam(w, r)
	if !ok {
		return
	}
	page, err := h.storefront.Vendor(vendorID)
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	done, err := page.Retry(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	respondPage(w, page)
}

func (h *VendorHandler) ReloadVendor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	vendorID, ok := vendorIDParam(w, r)
	if !ok {
		return
	}
	page, err := h.storefront.Vendor(vendorID)
	if err != nil {
		handleStorefrontError(w, err)
		return
	}

	done, err := page.Reload(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	respondPage(w, page)
}

func (h *VendorHandler) CloseVendor(w http.ResponseWriter, r *http.Request) {
	h.storefront.CloseVendor()
	w.WriteHeader(http.StatusNoContent)
}

func (h *VendorHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := userPosition(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_position", err.Error())
		return
	}

	wait(ctx, h.storefront.MapVendors().Start(r.Context()))
	h.respondMap(w, user)
}

func (h *VendorHandler) RetryMap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, err := userPosition(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_position", err.Error())
		return
	}

	done, err := h.storefront.MapVendors().Retry(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	h.respondMap(w, user)
}

func (h *VendorHandler) ReloadMap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	done, err := h.storefront.ReloadMap(r.Context())
	if err != nil {
		handleLoaderError(w, err)
		return
	}
	wait(ctx, done)
	h.respondMap(w, nil)
}

func (h *VendorHandler) respondMap(w http.ResponseWriter, user *domain.Coordinates) {
	state := h.storefront.MapVendors().State()
	resp := MapResponse{
		LoadResponse: loadResponse(state, func(vendors []domain.MapVendor) MapDTO {
			return MapDTO{Vendors: vendors}
		}),
		Region: h.storefront.MapRegion(user),
	}
	respondJSON(w, statusFor(state.Status), resp)
}

func respondPage(w http.ResponseWriter, page *storefront.VendorPage) {
	state := page.State()
	resp := loadResponse(state, func(detail domain.VendorDetail) VendorPageDTO {
		return toPageDTO(page, detail)
	})
	respondJSON(w, statusFor(state.Status), resp)
}

func toPageDTO(page *storefront.VendorPage, detail domain.VendorDetail) VendorPageDTO {
	dto := VendorPageDTO{
		Vendor:     toVendorDTO(detail.Vendor),
		Categories: detail.Categories,
	}
	for _, p := range detail.Promotions {
		dto.Promotions = append(dto.Promotions, PromotionDTO{Promotion: p, Savings: p.Savings()})
	}

	view, ok := page.View()
	if !ok {
		return dto
	}
	dto.ActiveCategory = view.ActiveCategory()
	for _, p := range view.VisibleProducts() {
		dto.Products = append(dto.Products, ProductDTO{Product: p, Summary: p.Summary(summaryLength)})
	}
	return dto
}

func toVendorDTO(v domain.Vendor) VendorDTO {
	full, half, empty := v.Stars()
	return VendorDTO{Vendor: v, Stars: StarsDTO{Full: full, Half: half, Empty: empty}}
}

func vendorIDParam(w http.ResponseWriter, r *http.Request) (domain.ID, bool) {
	id := chi.URLParam(r, "vendor_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_vendor_id", "vendor_id is required")
		return "", false
	}
	return domain.ID(id), true
}

func userPosition(r *http.Request) (*domain.Coordinates, error) {
	lat, lng := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
	if lat == "" && lng == "" {
		return nil, nil
	}
	latitude, errLat := strconv.ParseFloat(lat, 64)
	longitude, errLng := strconv.ParseFloat(lng, 64)
	if errLat != nil || errLng != nil {
		return nil, errors.New("lat and lng must both be numbers")
	}
	if latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		return nil, errors.New("lat or lng out of range")
	}
	return &domain.Coordinates{Latitude: latitude, Longitude: longitude}, nil
}

// wait blocks until the fetch settles or the request deadline passes; in the
// latter case the caller responds with the Loading state.
func wait(ctx context.Context, done <-chan struct{}) {
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func handleLoaderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, loader.ErrNotFailed), errors.Is(err, loader.ErrNotSettled):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
