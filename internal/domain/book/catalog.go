package book

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

// Catalog 图书目录状态管理器
// 设计说明:
// 1. Catalog独占图书列表,外部只能通过方法读写,读取返回副本
// 2. 每次变更:整体序列化 → 写入Store → 重算统计;写入失败则内存状态保持不变
// 3. 一把互斥锁串行化所有变更及其后的存储写入,Store只有Catalog这一个写者
// 4. 变更成功后向EventPublisher发送事件(可选)
type Catalog struct {
	mu        sync.RWMutex
	store     Store
	key       string
	books     []Book
	stats     Stats
	ids       *idGenerator
	publisher EventPublisher
	onStats   func(Stats)
	logger    *zap.Logger
}

// Option Catalog可选配置
type Option func(*Catalog)

// WithStorageKey 指定存储键(默认 enterprise_books)
func WithStorageKey(key string) Option {
	return func(c *Catalog) {
		if key != "" {
			c.key = key
		}
	}
}

// WithClock 指定时钟(用于生成ID,测试时注入固定时间)
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.ids = newIDGenerator(now)
	}
}

// WithEventPublisher 注入事件发布者
func WithEventPublisher(p EventPublisher) Option {
	return func(c *Catalog) {
		c.publisher = p
	}
}

// WithStatsHook 每次统计重算后回调(用于同步Prometheus指标)
func WithStatsHook(fn func(Stats)) Option {
	return func(c *Catalog) {
		c.onStats = fn
	}
}

// WithLogger 注入日志
func WithLogger(logger *zap.Logger) Option {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalog 创建图书目录,创建后需调用Load加载已保存的数据
func NewCatalog(store Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		key:    DefaultStorageKey,
		books:  []Book{},
		ids:    newIDGenerator(time.Now),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load 从Store加载图书列表
// 键不存在或数据无法解析时初始化为空列表,不返回错误;只有存储读取失败才返回错误
func (c *Catalog) Load(ctx context.Context) error {
	raw, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return apperrors.ErrStorageError.WithCause(err)
	}

	books := []Book{}
	if found && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &books); err != nil {
			c.logger.Warn("已保存的图书数据无法解析,重置为空列表",
				zap.String("key", c.key), zap.Error(err))
			books = []Book{}
		}
		if books == nil {
			books = []Book{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.books = books
	for _, b := range books {
		c.ids.observe(b.ID)
	}
	c.refreshStats()
	return nil
}

// Create 新建图书
// 业务规则:
// - 书名、作者、ISBN、分类均不能为空
// - ISBN不能与任何已有图书重复
// - 新书默认在库(BorrowedBy为空)
func (c *Catalog) Create(ctx context.Context, f Fields) (Book, error) {
	if err := validateFields(f); err != nil {
		return Book{}, err
	}

	var created Book
	err := c.mutate(ctx, func(books []Book) ([]Book, *Event, error) {
		if indexByISBN(books, f.ISBN, "") >= 0 {
			return nil, nil, ErrISBNDuplicate
		}

		created = Book{
			ID:       c.uniqueID(books),
			Title:    f.Title,
			Author:   f.Author,
			ISBN:     f.ISBN,
			Category: f.Category,
		}
		return append(books, created), &Event{Type: EventCreated, BookID: created.ID, Book: &created}, nil
	})
	if err != nil {
		return Book{}, err
	}
	return created, nil
}

// Update 修改图书信息
// 业务规则:
// - 图书必须存在
// - 修改后的ISBN不能与其他图书(ID不同)重复
// - 借阅状态保持不变
func (c *Catalog) Update(ctx context.Context, id string, p Patch) (Book, error) {
	var updated Book
	err := c.mutate(ctx, func(books []Book) ([]Book, *Event, error) {
		idx := indexByID(books, id)
		if idx < 0 {
			return nil, nil, ErrBookNotFound
		}

		candidate := books[idx]
		p.apply(&candidate)
		if err := validateFields(Fields{
			Title:    candidate.Title,
			Author:   candidate.Author,
			ISBN:     candidate.ISBN,
			Category: candidate.Category,
		}); err != nil {
			return nil, nil, err
		}
		if indexByISBN(books, candidate.ISBN, id) >= 0 {
			return nil, nil, ErrISBNDuplicate
		}

		books[idx] = candidate
		updated = candidate
		return books, &Event{Type: EventUpdated, BookID: id, Book: &updated}, nil
	})
	if err != nil {
		return Book{}, err
	}
	return updated, nil
}

// Delete 删除图书
// 图书不存在时视为成功(幂等),仍然会整体写入一次
func (c *Catalog) Delete(ctx context.Context, id string) error {
	return c.mutate(ctx, func(books []Book) ([]Book, *Event, error) {
		idx := indexByID(books, id)
		if idx < 0 {
			return books, nil, nil
		}
		removed := books[idx]
		books = append(books[:idx], books[idx+1:]...)
		return books, &Event{Type: EventDeleted, BookID: id, Book: &removed}, nil
	})
}

// Borrow 借出图书
// 已借出的图书再次借出会直接覆盖借阅人
func (c *Catalog) Borrow(ctx context.Context, id, borrower string) (Book, error) {
	var borrowed Book
	err := c.mutate(ctx, func(books []Book) ([]Book, *Event, error) {
		idx := indexByID(books, id)
		if idx < 0 {
			return nil, nil, ErrBookNotFound
		}

		name := borrower
		books[idx].BorrowedBy = &name
		borrowed = books[idx]
		return books, &Event{Type: EventBorrowed, BookID: id, Book: &borrowed}, nil
	})
	if err != nil {
		return Book{}, err
	}
	return borrowed, nil
}

// Return 归还图书
// 未借出的图书归还视为无操作,不返回错误
func (c *Catalog) Return(ctx context.Context, id string) (Book, error) {
	var returned Book
	err := c.mutate(ctx, func(books []Book) ([]Book, *Event, error) {
		idx := indexByID(books, id)
		if idx < 0 {
			return nil, nil, ErrBookNotFound
		}

		wasBorrowed := books[idx].IsBorrowed()
		books[idx].BorrowedBy = nil
		returned = books[idx]
		if !wasBorrowed {
			return books, nil, nil
		}
		return books, &Event{Type: EventReturned, BookID: id, Book: &returned}, nil
	})
	if err != nil {
		return Book{}, err
	}
	return returned, nil
}

// Get 根据ID获取图书
func (c *Catalog) Get(id string) (Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := indexByID(c.books, id)
	if idx < 0 {
		return Book{}, ErrBookNotFound
	}
	return c.books[idx].clone(), nil
}

// Books 返回当前图书列表副本(按创建顺序)
func (c *Catalog) Books() []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneBooks(c.books)
}

// Metrics 返回当前统计数据
func (c *Catalog) Metrics() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Export 导出为缩进格式的JSON数组
func (c *Catalog) Export() ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, err := json.MarshalIndent(c.books, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, "导出图书数据失败")
	}
	return data, nil
}

// Import 用JSON数组整体替换图书列表
// 只校验"是由对象组成的JSON数组",不做字段级校验(id可以是字符串或数字);格式不对时返回ErrImportFormat,目录保持不变
func (c *Catalog) Import(ctx context.Context, data []byte) (int, error) {
	books, err := parseImport(data)
	if err != nil {
		return 0, err
	}

	err = c.mutate(ctx, func([]Book) ([]Book, *Event, error) {
		for _, b := range books {
			c.ids.observe(b.ID)
		}
		return books, &Event{Type: EventImported, Count: len(books)}, nil
	})
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

// =========================================
// 内部实现
// =========================================

// mutate 在写锁内基于副本执行变更,成功写入存储后才替换内存状态
// fn返回nil列表表示失败,此时不写入
func (c *Catalog) mutate(ctx context.Context, fn func(books []Book) ([]Book, *Event, error)) error {
	c.mu.Lock()
	next, event, err := fn(cloneBooks(c.books))
	if err == nil {
		err = c.commit(ctx, next)
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	if event != nil {
		c.emit(ctx, *event)
	}
	return nil
}

// commit 整体写入存储并重算统计,调用方必须持有写锁
func (c *Catalog) commit(ctx context.Context, next []Book) error {
	if next == nil {
		next = []Book{}
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return apperrors.Wrap(err, "序列化图书数据失败")
	}
	if err := c.store.Set(ctx, c.key, raw); err != nil {
		return apperrors.ErrStorageError.WithCause(err)
	}

	c.books = next
	c.refreshStats()
	return nil
}

// refreshStats 重算统计,调用方必须持有写锁
func (c *Catalog) refreshStats() {
	c.stats = ComputeStats(c.books)
	if c.onStats != nil {
		c.onStats(c.stats)
	}
}

// emit 发布事件,失败只记录日志
func (c *Catalog) emit(ctx context.Context, event Event) {
	if c.publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := c.publisher.Publish(ctx, event); err != nil {
		c.logger.Warn("目录事件发布失败",
			zap.String("type", string(event.Type)),
			zap.String("book_id", event.BookID),
			zap.Error(err))
	}
}

// uniqueID 生成在当前列表中不存在的ID
func (c *Catalog) uniqueID(books []Book) string {
	for {
		id := c.ids.next()
		if indexByID(books, id) < 0 {
			return id
		}
	}
}

// parseImport 解析导入数据,要求顶层是JSON数组
func parseImport(data []byte) ([]Book, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrImportFormat
	}

	var books []Book
	if err := json.Unmarshal(trimmed, &books); err != nil {
		return nil, ErrImportFormat.WithCause(err)
	}
	if books == nil {
		books = []Book{}
	}
	return books, nil
}

func validateFields(f Fields) error {
	if strings.TrimSpace(f.Title) == "" ||
		strings.TrimSpace(f.Author) == "" ||
		strings.TrimSpace(f.ISBN) == "" ||
		strings.TrimSpace(f.Category) == "" {
		return ErrInvalidFields
	}
	return nil
}

func indexByID(books []Book, id string) int {
	for i := range books {
		if books[i].ID == id {
			return i
		}
	}
	return -1
}

// indexByISBN 查找ISBN相同且ID不等于excludeID的图书
func indexByISBN(books []Book, isbn, excludeID string) int {
	for i := range books {
		if books[i].ISBN == isbn && books[i].ID != excludeID {
			return i
		}
	}
	return -1
}

func cloneBooks(books []Book) []Book {
	out := make([]Book, len(books))
	for i, b := range books {
		out[i] = b.clone()
	}
	return out
}
