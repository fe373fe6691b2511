// Package metrics 基于Prometheus的指标收集
//
// # 指标分组
//
//   - HTTP:请求总数、耗时、正在处理的请求数
//   - 图书目录:当前图书数/借出数/分类数/作者数(每次变更后同步),变更操作次数
//   - 联网查询:按查询源和结果统计次数与耗时
//   - 扫码:按模式和结果统计次数
//   - 熔断器:状态与请求结果
//   - 消息队列:目录事件的发布与消费
//
// # 使用示例
//
//	metrics.InitMetrics()
//	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
//
//	metrics.IncCounterVec(metrics.LookupsTotal, map[string]string{
//	    "source": "openlibrary",
//	    "result": "found",
//	})
//
// 命名规范:Counter以_total结尾,Histogram以单位结尾(_seconds),
// 标签只使用取值有限的维度(source、result、op),不要用ISBN或用户ID作为标签。
//
// 辅助函数在指标未初始化(nil)时什么也不做,命令行工具不调用InitMetrics也能正常运行。
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// initOnce 防止重复注册
	initOnce sync.Once

	// HTTP请求相关指标

	// HTTPRequestsTotal HTTP请求总数
	// 标签:method、path(路由模板,如/api/books/:id)、status
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// 图书目录指标

	// CatalogBooks 目录统计(Gauge)
	// 标签:kind(total/borrowed/categories/authors)
	CatalogBooks *prometheus.GaugeVec

	// CatalogMutationsTotal 目录变更次数
	// 标签:op(create/update/delete/borrow/return/import)、result(success/failure)
	CatalogMutationsTotal *prometheus.CounterVec

	// 联网查询指标

	// LookupsTotal 图书信息查询次数
	// 标签:source(openlibrary/googlebooks)、result(found/not_found/error/rejected)
	LookupsTotal *prometheus.CounterVec

	// LookupDuration 单个查询源耗时
	LookupDuration *prometheus.HistogramVec

	// ScansTotal 扫码次数
	// 标签:mode(image/live)、result(success/no_barcode/decode_failed/camera_unavailable)
	ScansTotal *prometheus.CounterVec

	// 熔断器指标

	// CircuitBreakerState 熔断器状态
	// 0=CLOSED, 1=OPEN, 2=HALF_OPEN
	CircuitBreakerState *prometheus.GaugeVec

	// CircuitBreakerRequests 熔断器请求总数
	// 标签:name、result(success/failure/rejected)
	CircuitBreakerRequests *prometheus.CounterVec

	// 消息队列指标

	// MessagesPublishedTotal 消息发布总数
	// 标签:exchange、routing_key
	MessagesPublishedTotal *prometheus.CounterVec

	// MessagesConsumedTotal 消息消费总数
	// 标签:queue、result(success/failure)
	MessagesConsumedTotal *prometheus.CounterVec

	// MessageProcessingDuration 消息处理耗时
	MessageProcessingDuration prometheus.Histogram
)

// InitMetrics 初始化并注册所有指标到默认Registry
// 可以重复调用,只有第一次生效
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		CatalogBooks = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "catalog_books",
				Help: "图书目录统计（total/borrowed/categories/authors）",
			},
			[]string{"kind"},
		)

		CatalogMutationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_mutations_total",
				Help: "图书目录变更次数",
			},
			[]string{"op", "result"},
		)

		LookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "isbn_lookups_total",
				Help: "ISBN联网查询次数",
			},
			[]string{"source", "result"},
		)

		// 外部接口较慢,桶从50ms开始
		LookupDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "isbn_lookup_duration_seconds",
				Help:    "ISBN联网查询耗时（秒）",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"source"},
		)

		ScansTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "barcode_scans_total",
				Help: "条形码识别次数",
			},
			[]string{"mode", "result"},
		)

		CircuitBreakerState = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "熔断器状态（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
			},
			[]string{"name"},
		)

		CircuitBreakerRequests = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_requests_total",
				Help: "熔断器请求总数",
			},
			[]string{"name", "result"},
		)

		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_published_total",
				Help: "消息发布总数",
			},
			[]string{"exchange", "routing_key"},
		)

		MessagesConsumedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_consumed_total",
				Help: "消息消费总数",
			},
			[]string{"queue", "result"},
		)

		MessageProcessingDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "message_processing_duration_seconds",
				Help:    "消息处理耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
			},
		)
	})
}

// ObserveCatalog 同步目录统计
func ObserveCatalog(total, borrowed, categories, authors int) {
	if CatalogBooks == nil {
		return
	}
	CatalogBooks.WithLabelValues("total").Set(float64(total))
	CatalogBooks.WithLabelValues("borrowed").Set(float64(borrowed))
	CatalogBooks.WithLabelValues("categories").Set(float64(categories))
	CatalogBooks.WithLabelValues("authors").Set(float64(authors))
}

// RecordMutation 记录一次目录变更结果
func RecordMutation(op string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	IncCounterVec(CatalogMutationsTotal, map[string]string{"op": op, "result": result})
}

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增CounterVec(带标签)
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// SetGauge 设置Gauge值
func SetGauge(gauge prometheus.Gauge, value float64) {
	if gauge == nil {
		return
	}
	gauge.Set(value)
}

// SetGaugeVec 设置GaugeVec值(带标签)
func SetGaugeVec(gauge *prometheus.GaugeVec, labels map[string]string, value float64) {
	if gauge == nil {
		return
	}
	gauge.With(labels).Set(value)
}

// ObserveHistogram 记录Histogram观测值
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}

// ObserveHistogramVec 记录HistogramVec观测值(带标签)
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}
