package book

import (
	"context"
)

// DefaultStorageKey 图书列表的默认存储键
const DefaultStorageKey = "enterprise_books"

// Store 持久化存储适配器(依赖倒置)
// 设计说明:
// 1. 只有一个键值:整个图书列表序列化后存放在同一个键下
// 2. 每次变更整体覆盖写入,没有增量、没有事务日志
// 3. 由infrastructure层实现(内存、文件、SQLite、Redis、MySQL)
type Store interface {
	// Get 读取键对应的值,键不存在时found为false且err为nil
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set 整体覆盖写入
	Set(ctx context.Context, key string, value []byte) error
}
