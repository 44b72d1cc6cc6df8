package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identity_sync_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ZapLogger(logger, &config.Config{GinMode: gin.ReleaseMode}), ErrorHandler(logger))
	return r
}

func TestRawBody_PreservesExactBytes(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	var got []byte
	r.POST("/hook", RawBody(64), func(c *gin.Context) {
		body, ok := RawBodyFromContext(c)
		require.True(t, ok)
		got = body
		c.Status(http.StatusOK)
	})

	payload := "{ \"type\" :\t\"user.created\" }\n"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(payload)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, string(got))
}

func TestRawBody_RejectsOversizedBody(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	called := false
	r.POST("/hook", RawBody(8), func(c *gin.Context) { called = true })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(strings.Repeat("x", 9))))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
	assert.False(t, called)
}

func TestZapLogger_SetsRequestIDAndOmitsQuery(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newTestRouter(zap.New(core))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health?email=a@x.com", nil))

	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Request handled", entry.Message)
	_, hasQuery := entry.ContextMap()["query"]
	assert.False(t, hasQuery)
}

func TestZapLogger_ReusesIncomingRequestID(t *testing.T) {
	r := newTestRouter(zap.NewNop())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestErrorHandler_UnknownRouteIsJSON404(t *testing.T) {
	r := newTestRouter(zap.NewNop())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
