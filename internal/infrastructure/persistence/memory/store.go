// Package memory 进程内存实现
// 用于命令行的临时目录、测试以及未配置MySQL/Redis时的开发环境,进程退出后数据丢失
package memory

import (
	"context"
	"sync"
)

// Store 内存键值存储,实现book.Store
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Get 读取键值,返回副本
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set 覆盖写入
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = append([]byte(nil), value...)
	return nil
}
