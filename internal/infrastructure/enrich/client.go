// Package enrich 按ISBN联网查询图书信息
//
// 依次查询主来源(Open Library)和备用来源(Google Books):
//   - 主来源查到即返回,不再查询备用来源
//   - 主来源没有该书时查询备用来源
//   - 主来源请求失败时直接返回ErrLookupFailed,不查询备用来源
//
// 每个来源有独立的熔断器,某个来源持续故障时快速失败。
package enrich

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
	"github.com/xiebiao/bookshelf/pkg/metrics"
	"github.com/xiebiao/bookshelf/pkg/tracing"
)

const tracerName = "bookshelf/enrich"

// ErrLookupFailed 联网查询失败(网络错误、服务异常、响应无法解析)
var ErrLookupFailed = apperrors.New(apperrors.ErrCodeLookupFailed, "联网获取信息失败")

// Result 查询结果
// Found为false表示两个来源都没有该书,这不是错误
type Result struct {
	Found    bool   `json:"found" yaml:"found"`
	ISBN     string `json:"isbn" yaml:"isbn"`
	Title    string `json:"title,omitempty" yaml:"title,omitempty"`
	Author   string `json:"author,omitempty" yaml:"author,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"` // 只有主来源返回了主题时才有
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Lookuper 查询接口(应用层依赖此接口)
type Lookuper interface {
	Lookup(ctx context.Context, rawISBN string) (Result, error)
}

type guardedProvider struct {
	Provider
	breaker *circuitbreaker.CircuitBreaker
}

// Client 图书信息查询客户端
type Client struct {
	primary   guardedProvider
	secondary guardedProvider
	logger    *zap.Logger
}

// Option 客户端可选配置
type Option func(*options)

type options struct {
	breaker config.BreakerConfig
	logger  *zap.Logger
}

// WithBreaker 熔断器参数
func WithBreaker(cfg config.BreakerConfig) Option {
	return func(o *options) { o.breaker = cfg }
}

// WithLogger 日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewClient 用两个查询源创建客户端
func NewClient(primary, secondary Provider, opts ...Option) *Client {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client{
		primary:   guardedProvider{primary, newBreaker(primary.Name(), o.breaker, o.logger)},
		secondary: guardedProvider{secondary, newBreaker(secondary.Name(), o.breaker, o.logger)},
		logger:    o.logger,
	}
}

// New 按配置创建Open Library + Google Books客户端
// Timeout为0时不设置超时
func New(cfg config.EnrichConfig, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return NewClient(
		NewOpenLibrary(cfg.OpenLibraryURL, httpClient),
		NewGoogleBooks(cfg.GoogleBooksURL, httpClient),
		WithBreaker(cfg.Breaker),
		WithLogger(logger),
	)
}

func newBreaker(name string, cfg config.BreakerConfig, logger *zap.Logger) *circuitbreaker.CircuitBreaker {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(circuitbreaker.StateClosed))
	return circuitbreaker.New(name, circuitbreaker.Config{
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(c circuitbreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			logger.Warn("熔断器状态变化",
				zap.String("name", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
			metrics.SetGaugeVec(metrics.CircuitBreakerState, map[string]string{"name": name}, float64(to))
		},
	})
}

// Lookup 查询图书信息
// 规范化后不足10位的ISBN直接返回未找到,不发起请求
func (c *Client) Lookup(ctx context.Context, rawISBN string) (Result, error) {
	isbn := NormalizeISBN(rawISBN)
	if len(isbn) < MinISBNLength {
		return Result{ISBN: isbn}, nil
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "enrich.Lookup",
		trace.WithAttributes(attribute.String("isbn", isbn)))
	res, err := c.lookup(ctx, isbn)
	if res != nil {
		span.SetAttributes(attribute.String("source", res.Source))
	}
	tracing.EndSpan(span, err)
	if err != nil {
		return Result{ISBN: isbn}, err
	}

	if res == nil {
		c.logger.Info("未查到图书信息", zap.String("isbn", isbn))
		return Result{ISBN: isbn}, nil
	}
	res.ISBN = isbn
	return *res, nil
}

func (c *Client) lookup(ctx context.Context, isbn string) (*Result, error) {
	res, err := c.query(ctx, c.primary, isbn)
	if err != nil || res != nil {
		return res, err
	}
	return c.query(ctx, c.secondary, isbn)
}

// query 在熔断器保护下查询一个来源,记录耗时和结果
func (c *Client) query(ctx context.Context, p guardedProvider, isbn string) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, p.Name())
	start := time.Now()

	var res *Result
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		res, err = p.Lookup(ctx, isbn)
		return err
	})

	metrics.ObserveHistogramVec(metrics.LookupDuration, map[string]string{"source": p.Name()}, time.Since(start).Seconds())
	metrics.IncCounterVec(metrics.LookupsTotal, map[string]string{"source": p.Name(), "result": outcome(res, err)})
	metrics.IncCounterVec(metrics.CircuitBreakerRequests, map[string]string{"name": p.Name(), "result": breakerOutcome(err)})
	tracing.EndSpan(span, err)

	if err != nil {
		c.logger.Warn("查询图书信息失败",
			zap.String("source", p.Name()),
			zap.String("isbn", isbn),
			zap.String("trace_id", tracing.ExtractTraceID(ctx)),
			zap.Error(err),
		)
		return nil, ErrLookupFailed.WithCause(err)
	}
	return res, nil
}

func outcome(res *Result, err error) string {
	switch {
	case circuitbreaker.IsRejected(err):
		return "rejected"
	case err != nil:
		return "error"
	case res == nil:
		return "not_found"
	default:
		return "found"
	}
}

func breakerOutcome(err error) string {
	switch {
	case circuitbreaker.IsRejected(err):
		return "rejected"
	case err != nil && !errors.Is(err, context.Canceled):
		return "failure"
	default:
		return "success"
	}
}
