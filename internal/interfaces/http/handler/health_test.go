package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performHealthCheck(t *testing.T, h *HealthHandler) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/health", h.Check)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Check(t *testing.T) {
	ok := PingerFunc(func(ctx context.Context) error { return nil })
	down := PingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })

	t.Run("all dependencies healthy", func(t *testing.T) {
		w := performHealthCheck(t, NewHealthHandler(ok, ok))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, "ok", body["redis"])
	})

	t.Run("degraded when redis is down", func(t *testing.T) {
		w := performHealthCheck(t, NewHealthHandler(ok, down))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, "unreachable", body["redis"])
	})

	t.Run("nil dependencies are skipped", func(t *testing.T) {
		w := performHealthCheck(t, NewHealthHandler(nil, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.NotContains(t, body, "database")
	})
}
