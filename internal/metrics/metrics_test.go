// internal/metrics/metrics_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_RecordsRouteTemplate(t *testing.T) {
	router := gin.New()
	router.Use(Middleware())
	router.GET("/v1/products/:id", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/products/:id", "418"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/products/123", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/products/:id", "418"))
	assert.Equal(t, before+1, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpRequestsInFlight))
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	router := gin.New()
	router.Use(Middleware())

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")))
}

func TestHandler_ExposesWorkflowCounters(t *testing.T) {
	ReviewsSubmitted.WithLabelValues("approved").Inc()
	Redemptions.WithLabelValues(Outcome("")).Inc()

	router := gin.New()
	router.GET("/metrics", Handler())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "curated_market_reviews_submitted_total"))
	assert.True(t, strings.Contains(body, `curated_market_redemptions_total{outcome="success"}`))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(""))
	assert.Equal(t, "OUT_OF_STOCK", Outcome("OUT_OF_STOCK"))
}
