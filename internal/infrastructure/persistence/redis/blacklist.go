package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// TokenBlacklist Redis实现的Token黑名单
// Key: blacklist:{token},过期时间与Token剩余有效期一致,到期自动删除
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist 创建Token黑名单
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

// Revoke 将Token加入黑名单
// 使用场景：用户登出、修改密码后使旧Token失效
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // 已过期的Token无需记录
	}
	if err := b.client.Set(ctx, blacklistKey(token), "revoked", ttl).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}

// IsRevoked 检查Token是否在黑名单中
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := b.client.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, apperrors.ErrRedisError.WithCause(err)
	}
	return exists > 0, nil
}
