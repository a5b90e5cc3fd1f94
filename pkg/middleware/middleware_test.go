package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORSMiddlewareUsesConfiguredOrigin(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://app.example.com")
	r := newRouter(CORSMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddlewareShortCircuitsPreflight(t *testing.T) {
	r := newRouter(CORSMiddleware())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestTraceIDMiddlewareReusesInboundID(t *testing.T) {
	r := newRouter(TraceIDMiddleware())
	inbound := uuid.New().String()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", inbound)
	r.ServeHTTP(w, req)

	assert.Equal(t, inbound, w.Header().Get("X-Trace-ID"))
}

func TestTraceIDMiddlewareReplacesGarbageID(t *testing.T) {
	r := newRouter(TraceIDMiddleware())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Trace-ID", "not-a-uuid")
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Trace-ID")
	_, err := uuid.Parse(got)
	assert.NoError(t, err)
}
