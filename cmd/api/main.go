// Command api 图书管理HTTP服务
//
// @title                       企业图书管理 API
// @version                     1.0
// @description                 图书目录、借阅归还、ISBN查询与扫码录入
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/internal/infrastructure/logger"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

func main() {
	// 1. 加载配置(BOOKSHELF_CONFIG可指定文件路径)
	cfg, err := config.Load(os.Getenv("BOOKSHELF_CONFIG"))
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 2. 日志、指标、链路追踪
	l, syncLogger, err := logger.Setup(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer syncLogger()

	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		l.Fatal("初始化链路追踪失败", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			l.Warn("关闭链路追踪失败", zap.Error(err))
		}
	}()

	l.Info("配置加载成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("store", cfg.Store.Driver),
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Bool("mq", cfg.MQ.Enabled),
	)

	// 3. 依赖注入(手动组装)
	engine, cleanup, err := newApp(ctx, cfg, l)
	if err != nil {
		l.Fatal("初始化应用失败", zap.Error(err))
	}
	defer cleanup()

	// 4. 启动服务,收到SIGINT/SIGTERM后优雅退出
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		l.Info("服务启动成功", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error("服务异常退出", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("正在关闭服务...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("关闭服务失败", zap.Error(err))
	}
}
