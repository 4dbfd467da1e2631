package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCreatesLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Init(Config{LogDir: dir}))

	Info("hello", "key", "value")

	data, err := os.ReadFile(filepath.Join(dir, "habits.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "key=value")
}

func TestGinMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	UseWriter(&buf)
	defer func() { Logger = nil }()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "path=/ping")
	assert.Contains(t, out, "status=400")
}

func TestHelpersAreSafeWithoutLogger(t *testing.T) {
	Logger = nil
	Debug("noop")
	Info("noop")
	Warn("noop")
	Error("noop")
}
