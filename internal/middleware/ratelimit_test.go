package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newLimitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(rl.Handler())
	r.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	r := newLimitedRouter(NewRateLimiter(0.001, 2))

	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1:1234").Code)

	w := doRequest(r, "10.0.0.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"detail":"Request was throttled."}`, w.Body.String())

	// 其他客户端不受影响
	assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.2:1234").Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	r := newLimitedRouter(NewRateLimiter(0, 1))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(r, "10.0.0.1:1234").Code)
	}
}
