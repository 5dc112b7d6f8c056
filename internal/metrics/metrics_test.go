package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordStage(t *testing.T) {
	before := testutil.ToFloat64(stageOutcomes.WithLabelValues("translation", OutcomeFallback))
	RecordStage("translation", OutcomeFallback)
	assert.Equal(t, before+1, testutil.ToFloat64(stageOutcomes.WithLabelValues("translation", OutcomeFallback)))
}

func TestRecordCacheLookup(t *testing.T) {
	hits := testutil.ToFloat64(translationCache.WithLabelValues("hit"))
	misses := testutil.ToFloat64(translationCache.WithLabelValues("miss"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(translationCache.WithLabelValues("hit")))
	assert.Equal(t, misses+2, testutil.ToFloat64(translationCache.WithLabelValues("miss")))
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/complaints/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/complaints/abc-123", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/complaints/:id", "204")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "grievance_http_requests_total"))
}
