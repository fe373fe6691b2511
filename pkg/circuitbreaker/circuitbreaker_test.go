package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errUnavailable = errors.New("service unavailable")
	errNotFound    = errors.New("not found")
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	cb := New("openlibrary", cfg)
	cb.now = clock.now
	cb.toNewGeneration(clock.now())
	return cb, clock
}

func fail(context.Context) error    { return errUnavailable }
func succeed(context.Context) error { return nil }

func tripAfter(n uint32) func(Counts) bool {
	return func(c Counts) bool { return c.ConsecutiveFailures >= n }
}

// TestCircuitBreaker_ClosedState 测试关闭状态(正常)
func TestCircuitBreaker_ClosedState(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(Config{ReadyToTrip: tripAfter(5)})

	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(ctx, succeed))
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(10), cb.Counts().TotalSuccesses)
}

// TestCircuitBreaker_OpenState 测试连续失败后熔断
func TestCircuitBreaker_OpenState(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(Config{ReadyToTrip: tripAfter(5), Timeout: 30 * time.Second})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errUnavailable)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrOpenState)
	assert.True(t, IsRejected(err))
	assert.False(t, called, "熔断器打开时不应该调用实际函数")
}

// TestCircuitBreaker_HalfOpen 测试超时后探测恢复
func TestCircuitBreaker_HalfOpen(t *testing.T) {
	ctx := context.Background()
	var transitions []string
	cb, clock := newTestBreaker(Config{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: tripAfter(2),
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	require.Equal(t, StateOpen, cb.State())

	clock.advance(31 * time.Second)
	assert.Equal(t, StateHalfOpen, cb.State())

	t.Run("探测失败重新熔断", func(t *testing.T) {
		_ = cb.Execute(ctx, fail)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("探测成功恢复", func(t *testing.T) {
		clock.advance(31 * time.Second)
		require.NoError(t, cb.Execute(ctx, succeed))
		assert.Equal(t, StateClosed, cb.State())
	})

	assert.Equal(t, []string{
		"CLOSED->OPEN",
		"OPEN->HALF_OPEN",
		"HALF_OPEN->OPEN",
		"OPEN->HALF_OPEN",
		"HALF_OPEN->CLOSED",
	}, transitions)
}

func TestCircuitBreaker_IsSuccessful(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(Config{
		ReadyToTrip: tripAfter(2),
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errNotFound)
		},
	})

	for i := 0; i < 5; i++ {
		err := cb.Execute(ctx, func(context.Context) error { return errNotFound })
		assert.ErrorIs(t, err, errNotFound, "原始错误仍返回给调用方")
	}
	assert.Equal(t, StateClosed, cb.State(), "不存在不算失败")
	assert.Equal(t, uint32(5), cb.Counts().TotalSuccesses)
}

func TestCircuitBreaker_ContextCanceled(t *testing.T) {
	cb, _ := newTestBreaker(Config{ReadyToTrip: tripAfter(1)})

	ctx, cancel := context.WithCancel(context.Background())
	err := cb.Execute(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, cb.State(), "调用方取消不计为失败")
	assert.Equal(t, uint32(0), cb.Counts().Requests)

	err = cb.Execute(ctx, succeed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCircuitBreaker_IntervalResetsCounts(t *testing.T) {
	ctx := context.Background()
	cb, clock := newTestBreaker(Config{Interval: 10 * time.Second, ReadyToTrip: tripAfter(3)})

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	clock.advance(11 * time.Second)
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.State(), "窗口过期后连续失败重新计数")
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCounts_FailureRate(t *testing.T) {
	assert.Equal(t, 0.0, Counts{}.FailureRate())
	assert.Equal(t, 0.25, Counts{Requests: 4, TotalFailures: 1}.FailureRate())
}
