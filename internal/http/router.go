package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/storefront"
	"github.com/fjod/go_cart/storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxRequestBodySize = 1 << 20 // 1MB

func NewRouter(sf *storefront.Storefront, logger *zap.Logger, requestTimeout time.Duration) http.Handler {
	vendorHandler := NewVendorHandler(sf, requestTimeout)
	cartHandler := NewCartHandler(sf)
	checkoutHandler := NewCheckoutHandler(sf, requestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestIDHeader)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.RequestSize(maxRequestBodySize))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/vendors", func(r chi.Router) {
			r.Get("/", vendorHandler.ListVendors)
			r.Post("/retry", vendorHandler.RetryVendors)
			r.Post("/reload", vendorHandler.ReloadVendors)

			r.Route("/{vendor_id}", func(r chi.Router) {
				r.Get("/", vendorHandler.GetVendor)
				r.Delete("/", vendorHandler.CloseVendor)
				r.Put("/category", vendorHandler.SetCategory)
				r.Post("/retry", vendorHandler.RetryVendor)
				r.Post("/reload", vendorHandler.ReloadVendor)
			})
		})

		r.Route("/map", func(r chi.Router) {
			r.Get("/", vendorHandler.GetMap)
			r.Post("/retry", vendorHandler.RetryMap)
			r.Post("/reload", vendorHandler.ReloadMap)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			r.Post("/", checkoutHandler.Submit)
			r.Post("/ack", checkoutHandler.Acknowledge)
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
