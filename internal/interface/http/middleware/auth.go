package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/internal/domain/user"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/response"
)

// Context中保存当前用户信息的key
const (
	ContextKeyUserID         = "user_id"
	ContextKeyStudentID      = "student_id"
	ContextKeyName           = "name"
	ContextKeyRole           = "role"
	ContextKeyToken          = "token"
	ContextKeyTokenExpiresAt = "token_expires_at"
)

// AuthMiddleware JWT认证中间件
// 设计说明:
// 1. 从Header提取Bearer Token
// 2. 检查Token黑名单(已登出的Token)
// 3. 验证Token并将用户信息注入Context
// 4. 失败返回401,前端据此清除本地Token并回到登录页
type AuthMiddleware struct {
	jwtManager *jwt.Manager
	blacklist  user.TokenBlacklist
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager, blacklist user.TokenBlacklist) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		blacklist:  blacklist,
	}
}

// RequireAuth 要求登录
// 使用方式:
//
//	authorized := r.Group("/api")
//	authorized.Use(authMiddleware.RequireAuth())
//	authorized.GET("/books", bookHandler.List)
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式:Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.ErrorWithCode(c, apperrors.ErrCodeInvalidToken, "Token格式错误")
			c.Abort()
			return
		}
		tokenString := parts[1]

		revoked, err := m.blacklist.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		if revoked {
			response.ErrorWithCode(c, apperrors.ErrCodeTokenExpired, "Token已失效，请重新登录")
			c.Abort()
			return
		}

		claims, err := m.jwtManager.ParseAccessToken(tokenString)
		if err != nil {
			response.Error(c, err) // ErrTokenExpired、ErrInvalidToken
			c.Abort()
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyStudentID, claims.StudentID)
		c.Set(ContextKeyName, claims.Name)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyToken, tokenString)
		if claims.ExpiresAt != nil {
			c.Set(ContextKeyTokenExpiresAt, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RequireAdmin 要求管理员角色,必须放在RequireAuth之后
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != string(user.RoleAdmin) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// =========================================
// Context辅助函数(供Handler使用)
// =========================================

// GetUserID 当前登录用户ID,未登录时为0
func GetUserID(c *gin.Context) uint {
	return c.GetUint(ContextKeyUserID)
}

// GetName 当前登录用户姓名
func GetName(c *gin.Context) string {
	return c.GetString(ContextKeyName)
}

// GetRole 当前登录用户角色
func GetRole(c *gin.Context) string {
	return c.GetString(ContextKeyRole)
}

// IsAdmin 当前用户是否管理员
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == string(user.RoleAdmin)
}

// CurrentToken 当前请求使用的Access Token及其过期时间
func CurrentToken(c *gin.Context) (string, time.Time) {
	return c.GetString(ContextKeyToken), c.GetTime(ContextKeyTokenExpiresAt)
}
