//go:build wireinject
// +build wireinject

// Wire依赖注入配置
// 运行 `wire gen ./cmd/api` 生成wire_gen.go,其中的InitializeApp与providers.go中的newApp等价

package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// infrastructureSet 外部连接与存储
var infrastructureSet = wire.NewSet(
	provideBackends,
	provideCatalog,
	provideUserRepository,
	provideBlacklist,
)

// domainSet 领域服务与外部适配器
var domainSet = wire.NewSet(
	provideJWTManager,
	provideUserService,
	provideLookuper,
	provideDecoder,
	provideLiveScanner,
)

// interfaceSet 处理器、中间件与路由
var interfaceSet = wire.NewSet(
	provideAuthHandler,
	provideBookHandler,
	provideBorrowHandler,
	provideLookupHandler,
	provideUserHandler,
	provideAuthMiddleware,
	provideEngine,
)

// InitializeApp 初始化整个应用
// 返回的cleanup按相反顺序关闭消息队列、存储和数据库连接
func InitializeApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	wire.Build(infrastructureSet, domainSet, interfaceSet)
	return nil, nil, nil
}
