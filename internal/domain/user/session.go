package user

import (
	"context"
	"time"
)

// TokenBlacklist 已注销Token的黑名单
// JWT本身无状态,登出后在有效期内仍可使用,需要服务端记录
// 实现:Redis(多实例共享)或进程内存(单实例)
type TokenBlacklist interface {
	// Revoke 注销Token,ttl为Token剩余有效期,过期后自动移除
	Revoke(ctx context.Context, token string, ttl time.Duration) error

	// IsRevoked 是否已注销
	IsRevoked(ctx context.Context, token string) (bool, error)
}
