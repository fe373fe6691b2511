package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbook "github.com/xiebiao/bookshelf/internal/application/book"
	appuser "github.com/xiebiao/bookshelf/internal/application/user"
	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/user"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/enrich"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/scan"
	"github.com/xiebiao/bookshelf/internal/interface/http/handler"
	"github.com/xiebiao/bookshelf/internal/interface/http/middleware"
	"github.com/xiebiao/bookshelf/internal/interface/http/router"
	"github.com/xiebiao/bookshelf/pkg/jwt"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// 以下Provider同时供main.go手动组装和wire.go使用
// 依赖链:Backends ← Store/Repository ← Catalog/Service ← UseCase ← Handler ← Engine

func provideBackends(cfg *config.Config, logger *zap.Logger) (persistence.Backends, func(), error) {
	return persistence.OpenBackends(cfg, logger)
}

// provideCatalog 打开图书存储并加载目录
// 开启mq时变更后发布事件;每次变更后同步Prometheus目录指标
func provideCatalog(ctx context.Context, cfg *config.Config, backends persistence.Backends, logger *zap.Logger) (*book.Catalog, func(), error) {
	store, closeStore, err := persistence.OpenCatalogStore(cfg.Store, backends)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = closeStore() }

	opts := []book.Option{
		book.WithStorageKey(cfg.Store.Key),
		book.WithLogger(logger),
		book.WithStatsHook(func(s book.Stats) {
			metrics.ObserveCatalog(s.Total, s.Borrowed, s.Categories, s.Authors)
		}),
	}

	if cfg.MQ.Enabled {
		pub, err := mq.NewPublisher(cfg.MQ.URL, cfg.MQ.Exchange, "topic", logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, book.WithEventPublisher(messaging.NewCatalogPublisher(pub)))
		cleanup = func() {
			_ = pub.Close()
			_ = closeStore()
		}
	}

	catalog := book.NewCatalog(store, opts...)
	if err := catalog.Load(ctx); err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Info("图书目录已加载",
		zap.String("driver", cfg.Store.Driver),
		zap.Int("books", catalog.Metrics().Total),
	)
	return catalog, cleanup, nil
}

// provideUserRepository database.driver为mysql时使用MySQL,否则账号只保存在进程内
func provideUserRepository(backends persistence.Backends) user.Repository {
	if backends.DB != nil {
		return mysql.NewUserRepository(backends.DB)
	}
	return memory.NewUserRepository()
}

// provideBlacklist 开启Redis时黑名单保存在Redis(多实例共享),否则保存在进程内
func provideBlacklist(backends persistence.Backends) user.TokenBlacklist {
	if backends.Redis != nil {
		return redis.NewTokenBlacklist(backends.Redis)
	}
	return memory.NewTokenBlacklist()
}

func provideJWTManager(cfg *config.Config) *jwt.Manager {
	return jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpire, cfg.JWT.RefreshTokenExpire)
}

func provideUserService(repo user.Repository) user.Service {
	return user.NewService(repo)
}

func provideLookuper(cfg *config.Config, logger *zap.Logger) enrich.Lookuper {
	return enrich.New(cfg.Enrich, logger)
}

func provideDecoder(cfg *config.Config) (*scan.Decoder, error) {
	return scan.NewDecoder(cfg.Scan.Formats, cfg.Scan.TryHarder)
}

func provideLiveScanner(cfg *config.Config, decoder *scan.Decoder, logger *zap.Logger) *scan.LiveScanner {
	return scan.NewLiveScanner(decoder,
		scan.WithFrameInterval(cfg.Scan.FrameInterval),
		scan.WithLiveLogger(logger),
	)
}

func provideAuthHandler(userService user.Service, repo user.Repository, blacklist user.TokenBlacklist, jwtManager *jwt.Manager, logger *zap.Logger) *handler.AuthHandler {
	return handler.NewAuthHandler(
		appuser.NewLoginUseCase(userService, jwtManager, logger),
		appuser.NewRefreshTokenUseCase(repo, jwtManager),
		appuser.NewLogoutUseCase(blacklist),
		appuser.NewChangePasswordUseCase(userService),
		int64(jwtManager.AccessTokenTTL().Seconds()),
	)
}

func provideBookHandler(catalog *book.Catalog) *handler.BookHandler {
	return handler.NewBookHandler(
		appbook.NewListBooksUseCase(catalog),
		appbook.NewSaveBookUseCase(catalog),
		appbook.NewTransferUseCase(catalog),
	)
}

func provideBorrowHandler(catalog *book.Catalog) *handler.BorrowHandler {
	return handler.NewBorrowHandler(appbook.NewBorrowBookUseCase(catalog))
}

func provideLookupHandler(cfg *config.Config, lookuper enrich.Lookuper, decoder *scan.Decoder, live *scan.LiveScanner, logger *zap.Logger) *handler.LookupHandler {
	return handler.NewLookupHandler(appbook.NewLookupBookUseCase(lookuper, decoder, live, logger), cfg.Scan.MaxUploadSize)
}

// provideUserHandler 账号管理;启动时确保管理员账号存在
func provideUserHandler(ctx context.Context, cfg *config.Config, userService user.Service, repo user.Repository, catalog *book.Catalog, logger *zap.Logger) (*handler.UserHandler, error) {
	if err := appuser.SeedAdmin(ctx, userService, cfg.Admin.StudentID, cfg.Admin.Name, cfg.Admin.Password, logger); err != nil {
		return nil, err
	}
	return handler.NewUserHandler(appuser.NewManageUsersUseCase(userService, repo, catalog, logger)), nil
}

func provideAuthMiddleware(jwtManager *jwt.Manager, blacklist user.TokenBlacklist) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(jwtManager, blacklist)
}

func provideEngine(
	cfg *config.Config,
	auth *handler.AuthHandler,
	books *handler.BookHandler,
	borrow *handler.BorrowHandler,
	lookup *handler.LookupHandler,
	users *handler.UserHandler,
	authMiddleware *middleware.AuthMiddleware,
	logger *zap.Logger,
) *gin.Engine {
	return router.New(cfg, router.Handlers{
		Auth:   auth,
		Book:   books,
		Borrow: borrow,
		Lookup: lookup,
		User:   users,
	}, authMiddleware, logger)
}

// newApp 手动组装所有依赖(与wire.go中InitializeApp等价)
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gin.Engine, func(), error) {
	backends, closeBackends, err := provideBackends(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	catalog, closeCatalog, err := provideCatalog(ctx, cfg, backends, logger)
	if err != nil {
		closeBackends()
		return nil, nil, err
	}
	cleanup := func() {
		closeCatalog()
		closeBackends()
	}

	userRepo := provideUserRepository(backends)
	blacklist := provideBlacklist(backends)
	jwtManager := provideJWTManager(cfg)
	userService := provideUserService(userRepo)

	decoder, err := provideDecoder(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	live := provideLiveScanner(cfg, decoder, logger)
	lookuper := provideLookuper(cfg, logger)

	userHandler, err := provideUserHandler(ctx, cfg, userService, userRepo, catalog, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	engine := provideEngine(
		cfg,
		provideAuthHandler(userService, userRepo, blacklist, jwtManager, logger),
		provideBookHandler(catalog),
		provideBorrowHandler(catalog),
		provideLookupHandler(cfg, lookuper, decoder, live, logger),
		userHandler,
		provideAuthMiddleware(jwtManager, blacklist),
		logger,
	)
	return engine, cleanup, nil
}
