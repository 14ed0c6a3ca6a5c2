package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func adminRouter(keyHash string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.DELETE("/admin", AdminAuth(keyHash), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return r
}

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	t.Run("empty hash disables the check", func(t *testing.T) {
		w := httptest.NewRecorder()
		adminRouter("").ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing key is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		adminRouter(string(hash)).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
		req.Header.Set("X-Admin-Key", "wrong")
		w := httptest.NewRecorder()
		adminRouter(string(hash)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("accepts X-Admin-Key header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
		req.Header.Set("X-Admin-Key", "s3cret")
		w := httptest.NewRecorder()
		adminRouter(string(hash)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("accepts bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/admin", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		w := httptest.NewRecorder()
		adminRouter(string(hash)).ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCORS(t *testing.T) {
	newRouter := func(origins []string) *gin.Engine {
		gin.SetMode(gin.TestMode)
		r := gin.New()
		r.Use(CORS(origins))
		r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
		return r
	}

	t.Run("allowed origin is echoed back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		newRouter([]string{"http://localhost:5173"}).ServeHTTP(w, req)

		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin gets no CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()
		newRouter([]string{"http://localhost:5173"}).ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight is short-circuited", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		newRouter([]string{"*"}).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
