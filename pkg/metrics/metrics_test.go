package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *ServerMetrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestServerMetrics(t *testing.T) {
	m := NewServerMetrics("api")
	other := NewServerMetrics("api")
	require.NotSame(t, m.registry, other.registry)

	m.ObserveRequest(http.MethodGet, "/api/v1/orders", 200, 15*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/orders", 200, 5*time.Millisecond)
	m.ObserveOrder("create", "validation")

	body := scrape(t, m)
	assert.Contains(t, body, `eshop_api_http_requests_total{method="GET",route="/api/v1/orders",status="200"} 2`)
	assert.Contains(t, body, `eshop_api_http_request_duration_ms_count{method="GET",route="/api/v1/orders"} 2`)
	assert.Contains(t, body, `eshop_api_order_operations_total{operation="create",result="validation"} 1`)

	assert.NotContains(t, scrape(t, other), "eshop_api_order_operations_total{")
}
