package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"studyquest-server/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupRouter(logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.GinZapLogger(logger))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	return r
}

func TestGinZapLogger(t *testing.T) {
	t.Run("Skips health endpoint", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		r := setupRouter(zap.New(core))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, 0, logs.Len())
		assert.Empty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Logs and sets request id", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		r := setupRouter(zap.New(core))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok?x=1", nil))

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		entries := logs.FilterMessage("Request completed").All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, "/ok?x=1", entries[0].ContextMap()["path"])
		}
	})

	t.Run("Keeps incoming request id", func(t *testing.T) {
		core, _ := observer.New(zap.DebugLevel)
		r := setupRouter(zap.New(core))

		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Request-ID", "abc")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))
	})

	t.Run("Client errors at warn", func(t *testing.T) {
		core, logs := observer.New(zap.DebugLevel)
		r := setupRouter(zap.New(core))

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

		assert.Equal(t, 1, logs.FilterMessage("Client error").Len())
	})
}
