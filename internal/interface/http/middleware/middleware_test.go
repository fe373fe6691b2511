package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowOrigins: []string{"http://localhost:5173"}}))
	r.GET("/api/books", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve := func(method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/books", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("允许的来源", func(t *testing.T) {
		w := serve(http.MethodGet, "http://localhost:5173")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求", func(t *testing.T) {
		w := serve(http.MethodOptions, "http://localhost:5173")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})

	t.Run("不允许的来源", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve(http.MethodGet, "http://evil.example").Code)
	})

	t.Run("同源请求不带Origin", func(t *testing.T) {
		w := serve(http.MethodGet, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRequireAuthAndAdmin(t *testing.T) {
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	auth := NewAuthMiddleware(manager, memory.NewTokenBlacklist())

	r := gin.New()
	r.Use(Logger(zap.NewNop()))
	r.GET("/me", auth.RequireAuth(), func(c *gin.Context) {
		token, expiresAt := CurrentToken(c)
		c.JSON(http.StatusOK, gin.H{
			"id":        GetUserID(c),
			"name":      GetName(c),
			"has_token": token != "",
			"expires":   !expiresAt.IsZero(),
		})
	})
	r.GET("/admin", auth.RequireAuth(), auth.RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	get := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	student, err := manager.GenerateToken(jwt.Identity{UserID: 7, StudentID: "2024001", Name: "张三", Role: "student"})
	require.NoError(t, err)
	admin, err := manager.GenerateToken(jwt.Identity{UserID: 1, StudentID: "admin", Name: "管理员", Role: "admin"})
	require.NoError(t, err)

	w := get("/me", "Bearer "+student.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"张三","has_token":true,"expires":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	assert.Equal(t, http.StatusUnauthorized, get("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/me", "Token "+student.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, get("/me", "Bearer "+student.RefreshToken).Code, "Refresh Token不能访问接口")

	assert.Equal(t, http.StatusForbidden, get("/admin", "Bearer "+student.AccessToken).Code)
	assert.Equal(t, http.StatusOK, get("/admin", "Bearer "+admin.AccessToken).Code)
}
