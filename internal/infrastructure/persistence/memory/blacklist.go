package memory

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist 进程内Token黑名单
// 过期条目在写入时顺带清理
type TokenBlacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Time
	now    func() time.Time
}

// NewTokenBlacklist 创建内存黑名单
func NewTokenBlacklist() *TokenBlacklist {
	return &TokenBlacklist{tokens: make(map[string]time.Time), now: time.Now}
}

func (b *TokenBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for t, expireAt := range b.tokens {
		if !now.Before(expireAt) {
			delete(b.tokens, t)
		}
	}
	if ttl > 0 {
		b.tokens[token] = now.Add(ttl)
	}
	return nil
}

func (b *TokenBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expireAt, ok := b.tokens[token]
	return ok && b.now().Before(expireAt), nil
}
