// Package file 本地JSON文件存储
// 文件内容是一个JSON对象,每个键对应一个值:{"enterprise_books": [...]}
// 写入使用临时文件+rename,进程中途退出也不会留下半个文件
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// Store 文件键值存储,实现book.Store
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore 创建文件存储,所在目录不存在时自动创建
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Path 数据文件路径
func (s *Store) Path() string {
	return s.path
}

// Get 读取键值
// 文件不存在视为空存储;文件内容无法解析时原样返回文件内容,由调用方按无法解析的数据处理
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, corrupt, err := s.read()
	if err != nil {
		return nil, false, err
	}
	if corrupt != nil {
		return corrupt, true, nil
	}
	v, ok := entries[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set 覆盖写入,value必须是合法JSON
// 文件已损坏时丢弃原内容,重新写入
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	if !json.Valid(value) {
		return fmt.Errorf("键%s的值不是合法JSON", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, _, err := s.read()
	if err != nil {
		return err
	}
	entries[key] = json.RawMessage(append([]byte(nil), value...))

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据文件失败: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("写入数据文件失败: %w", err)
	}
	return nil
}

// read 读取整个数据文件
// 内容无法解析时entries为空,corrupt为文件原始内容
func (s *Store) read() (entries map[string]json.RawMessage, corrupt []byte, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]json.RawMessage), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据文件失败: %w", err)
	}

	entries = make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return make(map[string]json.RawMessage), data, nil
	}
	return entries, nil, nil
}
