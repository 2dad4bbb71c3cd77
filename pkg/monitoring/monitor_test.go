package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/api/attempts/:attemptId", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/api/attempts/12", "/api/attempts/13", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/attempts/:attemptId", "200")); got != 2 {
		t.Fatalf("templated counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", unmatchedRoute, "404")); got != 1 {
		t.Fatalf("unmatched counter = %v, want 1", got)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()
}
