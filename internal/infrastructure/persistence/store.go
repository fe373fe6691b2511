// Package persistence 按配置选择图书目录的存储驱动
package persistence

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/file"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/memory"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/redis"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence/sqlite"
)

// Backends 已建立的外部连接,对应驱动未使用时可以为nil
type Backends struct {
	Redis *goredis.Client
	DB    *gorm.DB
}

// OpenBackends 按配置建立Redis和MySQL连接(未开启的保持为nil)
// 返回的close关闭所有已建立的连接
func OpenBackends(cfg *config.Config, logger *zap.Logger) (Backends, func(), error) {
	var (
		backends Backends
		closers  []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			return Backends{}, nil, err
		}
		backends.Redis = client
		closers = append(closers, func() { _ = client.Close() })
	}

	if cfg.Database.Driver == "mysql" {
		db, err := mysql.NewDB(cfg.Database, cfg.Server.Mode, logger)
		if err != nil {
			closeAll()
			return Backends{}, nil, err
		}
		backends.DB = db
		closers = append(closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
	}

	return backends, closeAll, nil
}

// OpenCatalogStore 创建目录存储,返回的close在退出时调用
func OpenCatalogStore(cfg config.StoreConfig, backends Backends) (book.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "memory":
		return memory.NewStore(), noop, nil

	case "file":
		s, err := file.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil

	case "sqlite":
		s, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "redis":
		if backends.Redis == nil {
			return nil, nil, fmt.Errorf("存储驱动redis需要Redis连接")
		}
		return redis.NewCatalogStore(backends.Redis, "bookshelf:"), noop, nil

	case "mysql":
		if backends.DB == nil {
			return nil, nil, fmt.Errorf("存储驱动mysql需要数据库连接")
		}
		return mysql.NewKVStore(backends.DB), noop, nil
	}

	return nil, nil, fmt.Errorf("不支持的图书存储驱动: %q", cfg.Driver)
}
