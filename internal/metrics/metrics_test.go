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

func TestRecordValidationFailure(t *testing.T) {
	before := testutil.ToFloat64(validationFailures.WithLabelValues("lead_time"))
	RecordValidationFailure("lead_time")
	after := testutil.ToFloat64(validationFailures.WithLabelValues("lead_time"))

	assert.Equal(t, before+1, after)
}

func TestMiddlewareLabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/habits/:id/", func(c *gin.Context) {
		c.Status(http.StatusTeapot)
	})
	r.GET("/metrics", gin.WrapH(Handler()))

	counter := httpRequests.WithLabelValues("GET", "/habits/:id/", "418")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/habits/42/", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "habits_http_requests_total"))
}
