package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// KVStore MySQL键值存储，实现book.Store
type KVStore struct {
	db *gorm.DB
}

// NewKVStore 创建键值存储
func NewKVStore(db *gorm.DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var model KVModel
	err := s.db.WithContext(ctx).Where("`key` = ?", key).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.ErrDatabaseError.WithCause(err)
	}
	return model.Value, true, nil
}

// Set 使用INSERT ... ON DUPLICATE KEY UPDATE覆盖写入
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	model := &KVModel{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(model).Error
	if err != nil {
		return apperrors.ErrDatabaseError.WithCause(err)
	}
	return nil
}
