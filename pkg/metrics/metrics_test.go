package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/vendors/{vendor_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := httpRequests.WithLabelValues(http.MethodGet, "/vendors/{vendor_id}", "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vendors/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestInstrumentHandler_DefaultStatus(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	counter := httpRequests.WithLabelValues(http.MethodGet, "/ok", "200")
	before := testutil.ToFloat64(counter)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordUpstream(t *testing.T) {
	counter := upstreamRequests.WithLabelValues("list vendors", OutcomeApplication)
	before := testutil.ToFloat64(counter)

	RecordUpstream("list vendors", OutcomeApplication, 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRecordCacheLookupAndCheckout(t *testing.T) {
	hits := cacheLookups.WithLabelValues(CacheHit)
	confirmed := checkouts.WithLabelValues("CONFIRMED")
	hitsBefore := testutil.ToFloat64(hits)
	confirmedBefore := testutil.ToFloat64(confirmed)

	RecordCacheLookup(CacheHit)
	RecordCacheLookup(CacheHit)
	RecordCheckout("CONFIRMED")

	assert.Equal(t, hitsBefore+2, testutil.ToFloat64(hits))
	assert.Equal(t, confirmedBefore+1, testutil.ToFloat64(confirmed))
}

func TestHandler_ExposesRegistry(t *testing.T) {
	RecordCacheLookup(CacheMiss)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storefront_catalog_cache_lookups_total"))
}
