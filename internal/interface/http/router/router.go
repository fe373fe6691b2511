// Package router 注册HTTP路由
//
// 路由分组:
//
//	/ping、/metrics、/swagger/*any        公开
//	/api/auth/login、/api/auth/refresh    公开
//	/api/auth/*、/api/books/*、/api/borrow/* 需要登录
//	图书增删改、导入导出、/api/users/*       需要管理员
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
)

// Handlers 所有HTTP处理器
type Handlers struct {
	Auth   *handler.AuthHandler
	Book   *handler.BookHandler
	Borrow *handler.BorrowHandler
	Lookup *handler.LookupHandler
	User   *handler.UserHandler
}

// New 创建Gin引擎并注册路由
func New(cfg *config.Config, h Handlers, auth *middleware.AuthMiddleware, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery(), middleware.CORS(cfg.CORS))

	// 健康检查
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"status":  "healthy",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 访问 http://localhost:8080/swagger/index.html 查看API文档,生产环境关闭
	if cfg.Server.Mode != gin.ReleaseMode {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", auth.RequireAuth(), h.Auth.Logout)
		authGroup.POST("/change-password", auth.RequireAuth(), h.Auth.ChangePassword)
	}

	admin := auth.RequireAdmin()

	books := api.Group("/books", auth.RequireAuth())
	{
		books.GET("", h.Book.List)
		books.GET("/categories", h.Book.Categories)
		books.GET("/stats", h.Book.Stats)
		books.GET("/lookup/:isbn", h.Lookup.Lookup)
		books.POST("/scan", h.Lookup.Scan)
		books.GET("/export", admin, h.Book.Export)
		books.POST("/import", admin, h.Book.Import)
		books.GET("/:id", h.Book.Get)
		books.POST("", admin, h.Book.Create)
		books.PUT("/:id", admin, h.Book.Update)
		books.DELETE("/:id", admin, h.Book.Delete)
	}

	borrow := api.Group("/borrow", auth.RequireAuth())
	{
		borrow.GET("/records", admin, h.Borrow.Records)
		borrow.GET("/my", h.Borrow.My)
		borrow.POST("/:id", h.Borrow.Borrow)
		borrow.POST("/return/:id", h.Borrow.Return)
	}

	users := api.Group("/users", auth.RequireAuth(), admin)
	{
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.DELETE("/:id", h.User.Delete)
	}

	return r
}
