// Package circuitbreaker 熔断器
//
// 用于保护对外部图书信息服务的调用:外部服务连续失败时快速失败,
// 不再让每次查询都等待超时,过一段时间后放少量请求探测是否恢复。
//
// 状态机:
//
//	CLOSED --(ReadyToTrip)--> OPEN --(Timeout到期)--> HALF_OPEN
//	HALF_OPEN --(成功)--> CLOSED
//	HALF_OPEN --(失败)--> OPEN
package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State 熔断器状态
type State int

const (
	// StateClosed 关闭状态(正常):请求正常通过,统计失败次数
	StateClosed State = iota

	// StateOpen 打开状态(熔断):请求快速失败,Timeout后转为HALF_OPEN
	StateOpen

	// StateHalfOpen 半开状态(探测):最多放行MaxRequests个请求
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

var (
	// ErrOpenState 熔断器打开,请求被拒绝
	ErrOpenState = errors.New("circuit breaker is open")

	// ErrTooManyRequests 半开状态下探测请求已满
	ErrTooManyRequests = errors.New("circuit breaker: too many requests in half-open state")
)

// IsRejected 错误是否由熔断器拒绝(而不是请求本身失败)
func IsRejected(err error) bool {
	return errors.Is(err, ErrOpenState) || errors.Is(err, ErrTooManyRequests)
}

// Config 熔断器配置
type Config struct {
	// MaxRequests 半开状态下允许的最大请求数,0按1处理
	MaxRequests uint32

	// Interval 关闭状态下的统计窗口,到期清零;<=0表示不清零
	Interval time.Duration

	// Timeout OPEN状态持续时间,<=0按60秒处理
	Timeout time.Duration

	// ReadyToTrip 关闭状态下每次失败后调用,返回true则熔断
	// 为nil时:连续失败超过5次熔断
	ReadyToTrip func(counts Counts) bool

	// IsSuccessful 判断请求结果是否算成功,为nil时err==nil算成功
	// 例如"图书不存在"是正常结果,不应计为失败
	IsSuccessful func(err error) bool

	// OnStateChange 状态变化回调(在锁内调用,不要在回调里调用熔断器方法)
	OnStateChange func(name string, from State, to State)
}

// Counts 统计数据
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRate 失败率
func (c Counts) FailureRate() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

func (c *Counts) onRequest() {
	c.Requests++
}

func (c *Counts) onSuccess() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) onFailure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

func (c *Counts) clear() {
	*c = Counts{}
}

// CircuitBreaker 熔断器
// 并发安全;generation在每次状态切换时递增,
// 切换前发出、切换后才返回的请求结果会被丢弃,不影响新状态的统计
type CircuitBreaker struct {
	name          string
	maxRequests   uint32
	interval      time.Duration
	timeout       time.Duration
	readyToTrip   func(Counts) bool
	isSuccessful  func(error) bool
	onStateChange func(string, State, State)
	now           func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// New 创建熔断器
func New(name string, cfg Config) *CircuitBreaker {
	cb := &CircuitBreaker{
		name:          name,
		maxRequests:   cfg.MaxRequests,
		interval:      cfg.Interval,
		timeout:       cfg.Timeout,
		readyToTrip:   cfg.ReadyToTrip,
		isSuccessful:  cfg.IsSuccessful,
		onStateChange: cfg.OnStateChange,
		now:           time.Now,
	}
	if cb.maxRequests == 0 {
		cb.maxRequests = 1
	}
	if cb.timeout <= 0 {
		cb.timeout = 60 * time.Second
	}
	if cb.readyToTrip == nil {
		cb.readyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if cb.isSuccessful == nil {
		cb.isSuccessful = func(err error) bool { return err == nil }
	}
	cb.toNewGeneration(cb.now())
	return cb
}

// Name 熔断器名称
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// Execute 在熔断器保护下执行请求
// 熔断器拒绝时返回ErrOpenState或ErrTooManyRequests,req不会被调用;
// ctx已取消时直接返回ctx.Err(),不计入统计
func (cb *CircuitBreaker) Execute(ctx context.Context, req func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = req(ctx)

	// 调用方主动取消不代表下游故障
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		cb.discard(generation)
		return err
	}

	cb.afterRequest(generation, cb.isSuccessful(err))
	return err
}

// State 当前状态
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, _ := cb.currentState(cb.now())
	return state
}

// Counts 当前统计窗口的数据
func (cb *CircuitBreaker) Counts() Counts {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.counts
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	state, generation := cb.currentState(cb.now())
	switch {
	case state == StateOpen:
		return generation, ErrOpenState
	case state == StateHalfOpen && cb.counts.Requests >= cb.maxRequests:
		return generation, ErrTooManyRequests
	}

	cb.counts.onRequest()
	return generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()
	state, generation := cb.currentState(now)
	if generation != before {
		return
	}

	if success {
		cb.counts.onSuccess()
		if state == StateHalfOpen && cb.counts.ConsecutiveSuccesses >= cb.maxRequests {
			cb.setState(StateClosed, now)
		}
		return
	}

	cb.counts.onFailure()
	switch state {
	case StateClosed:
		if cb.readyToTrip(cb.counts) {
			cb.setState(StateOpen, now)
		}
	case StateHalfOpen:
		cb.setState(StateOpen, now)
	}
}

// discard 撤销一次已放行但不计结果的请求
func (cb *CircuitBreaker) discard(before uint64) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if _, generation := cb.currentState(cb.now()); generation == before && cb.counts.Requests > 0 {
		cb.counts.Requests--
	}
}

func (cb *CircuitBreaker) currentState(now time.Time) (State, uint64) {
	switch cb.state {
	case StateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.toNewGeneration(now)
		}
	case StateOpen:
		if cb.expiry.Before(now) {
			cb.setState(StateHalfOpen, now)
		}
	}
	return cb.state, cb.generation
}

func (cb *CircuitBreaker) setState(state State, now time.Time) {
	if cb.state == state {
		return
	}

	prev := cb.state
	cb.state = state
	cb.toNewGeneration(now)

	if cb.onStateChange != nil {
		cb.onStateChange(cb.name, prev, state)
	}
}

func (cb *CircuitBreaker) toNewGeneration(now time.Time) {
	cb.generation++
	cb.counts.clear()

	var zero time.Time
	switch cb.state {
	case StateClosed:
		if cb.interval <= 0 {
			cb.expiry = zero
		} else {
			cb.expiry = now.Add(cb.interval)
		}
	case StateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = zero
	}
}
