package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
)

// New 根据配置创建zap日志
// 设计说明:
// 1. Format为json时输出结构化日志(生产环境),console时输出便于阅读的格式(开发环境)
// 2. Output支持stdout、stderr或文件路径
// 3. 不做采样,每条日志都输出
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		parsed, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("无效的日志级别: %w", err)
		}
		level = parsed
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil
	zc.DisableCaller = !cfg.EnableCaller
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch strings.ToLower(cfg.Format) {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return nil, fmt.Errorf("不支持的日志格式: %s", cfg.Format)
	}

	output := cfg.Output
	if output == "" {
		output = "stdout"
	}
	zc.OutputPaths = []string{output}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Setup 创建日志并替换zap全局日志(zap.L())
// 返回的cleanup在退出前调用:刷新缓冲并恢复原来的全局日志
func Setup(cfg config.LogConfig) (*zap.Logger, func(), error) {
	l, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	restore := zap.ReplaceGlobals(l)
	return l, func() {
		_ = l.Sync()
		restore()
	}, nil
}
