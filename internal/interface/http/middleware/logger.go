package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// slowRequestThreshold 超过该耗时的请求记录为警告
const slowRequestThreshold = 3 * time.Second

// Logger 请求日志中间件
// 1. 生成请求ID写入Context和响应头X-Request-ID
// 2. 请求结束后记录方法、路由、状态码、耗时、客户端IP
// 3. 同时更新HTTP请求指标
//
// 不记录请求体和Authorization头
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		metrics.IncGauge(metrics.HTTPRequestsInProgress)
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		metrics.DecGauge(metrics.HTTPRequestsInProgress)

		// 使用路由模板作为标签,未匹配的路由统一记为unmatched
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		labels := map[string]string{
			"method": c.Request.Method,
			"path":   path,
			"status": strconv.Itoa(status),
		}
		metrics.IncCounterVec(metrics.HTTPRequestsTotal, labels)
		metrics.ObserveHistogramVec(metrics.HTTPRequestDuration, map[string]string{
			"method": c.Request.Method,
			"path":   path,
		}, latency.Seconds())

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			logger.Error("请求处理失败", fields...)
		case latency > slowRequestThreshold:
			logger.Warn("慢请求", fields...)
		default:
			logger.Info("请求完成", fields...)
		}
	}
}
