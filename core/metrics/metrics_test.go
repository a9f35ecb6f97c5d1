package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ordersCreatedTotal.WithLabelValues("created"))
	IncOrder("Created")
	if got := testutil.ToFloat64(ordersCreatedTotal.WithLabelValues("created")); got != before+1 {
		t.Fatalf("orders created = %v, want %v", got, before+1)
	}

	IncSend("", "ok")
	if got := testutil.ToFloat64(sendsTotal.WithLabelValues("unknown", "ok")); got < 1 {
		t.Fatalf("empty action must be normalized, got %v", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	IncSaleListing()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "dealer_sale_listings_created_total") {
		t.Fatal("sale listing counter missing from exposition")
	}
}
