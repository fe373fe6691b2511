package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// CatalogStore Redis键值存储,实现book.Store
// 多个服务实例共享同一份目录;prefix用于区分环境(如bookshelf:)
type CatalogStore struct {
	client *redis.Client
	prefix string
}

// NewCatalogStore 创建目录存储
func NewCatalogStore(client *redis.Client, prefix string) *CatalogStore {
	return &CatalogStore{client: client, prefix: prefix}
}

func (s *CatalogStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.ErrRedisError.WithCause(err)
	}
	return value, true, nil
}

// Set 不设置过期时间
func (s *CatalogStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return apperrors.ErrRedisError.WithCause(err)
	}
	return nil
}
