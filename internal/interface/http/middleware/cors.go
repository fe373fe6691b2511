package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

var (
	corsAllowMethods = strings.Join([]string{
		http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
	}, ", ")
	corsAllowHeaders = "Authorization, Content-Type, X-Request-ID"
)

// CORS 跨域资源共享中间件
// 前端开发服务器(如http://localhost:5173)与API不同源时需要配置allow_origins;
// 列表为空时不处理跨域,"*"允许任意来源
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(cfg.AllowOrigins) == 0 {
			c.Next()
			return
		}

		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !slices.Contains(cfg.AllowOrigins, "*") && !slices.Contains(cfg.AllowOrigins, origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		c.Header("Access-Control-Allow-Methods", corsAllowMethods)
		c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, Content-Disposition")

		// 预检请求
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
