package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/logger"
	"github.com/xiebiao/bookshelf/internal/infrastructure/messaging"
	"github.com/xiebiao/bookshelf/internal/infrastructure/persistence"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// app 一次命令执行用到的依赖
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *book.Catalog // 只有需要目录的命令才会加载
	closers []func()
}

// loadApp 读取配置并创建日志
// 日志固定输出到stderr,stdout只留给命令结果(便于管道处理json/yaml输出)
func loadApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Log
	logCfg.Output = "stderr"
	logCfg.Level = "warn"
	if opts.Verbose {
		logCfg.Level = "debug"
	}
	l, err := logger.New(logCfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: l}
	a.closers = append(a.closers, func() { _ = l.Sync() })
	return a, nil
}

// openCatalog 在loadApp基础上打开存储并加载目录
// 开启mq时目录变更同时发布事件;消息队列连不上只记录警告,不影响本地操作
func openCatalog(ctx context.Context, opts *RootOptions) (*app, error) {
	a, err := loadApp(opts)
	if err != nil {
		return nil, err
	}

	backends, closeBackends, err := persistence.OpenBackends(a.cfg, a.logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeBackends)

	store, closeStore, err := persistence.OpenCatalogStore(a.cfg.Store, backends)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = closeStore() })

	catalogOpts := []book.Option{
		book.WithStorageKey(a.cfg.Store.Key),
		book.WithLogger(a.logger),
	}
	if a.cfg.MQ.Enabled {
		pub, err := mq.NewPublisher(a.cfg.MQ.URL, a.cfg.MQ.Exchange, "topic", a.logger)
		if err != nil {
			a.logger.Warn("连接消息队列失败,本次不发布目录事件", zap.Error(err))
		} else {
			catalogOpts = append(catalogOpts, book.WithEventPublisher(messaging.NewCatalogPublisher(pub)))
			a.closers = append(a.closers, func() { _ = pub.Close() })
		}
	}

	a.catalog = book.NewCatalog(store, catalogOpts...)
	if err := a.catalog.Load(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// runWithCatalog 打开目录执行fn,结束后关闭连接
func runWithCatalog(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := commandContext(cmd)
	a, err := openCatalog(ctx, opts)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
