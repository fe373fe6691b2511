package book

import (
	"context"
	"strings"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// SaveBookUseCase 新增/编辑/删除图书
// 同一个表单既用于新增也用于编辑:ID为空时新增,否则覆盖四个字段
type SaveBookUseCase struct {
	catalog *book.Catalog
}

// NewSaveBookUseCase 创建图书维护用例
func NewSaveBookUseCase(catalog *book.Catalog) *SaveBookUseCase {
	return &SaveBookUseCase{catalog: catalog}
}

// SaveBookRequest 图书表单DTO
type SaveBookRequest struct {
	ID       string
	Title    string
	Author   string
	ISBN     string
	Category string
}

func (r SaveBookRequest) fields() book.Fields {
	return book.Fields{
		Title:    strings.TrimSpace(r.Title),
		Author:   strings.TrimSpace(r.Author),
		ISBN:     strings.TrimSpace(r.ISBN),
		Category: strings.TrimSpace(r.Category),
	}
}

// Execute 保存图书
func (uc *SaveBookUseCase) Execute(ctx context.Context, req SaveBookRequest) (book.Book, error) {
	if req.ID == "" {
		b, err := uc.catalog.Create(ctx, req.fields())
		metrics.RecordMutation("create", err)
		return b, err
	}

	b, err := uc.catalog.Update(ctx, req.ID, book.PatchFromFields(req.fields()))
	metrics.RecordMutation("update", err)
	return b, err
}

// Delete 删除图书(不存在时也视为成功)
func (uc *SaveBookUseCase) Delete(ctx context.Context, id string) error {
	err := uc.catalog.Delete(ctx, id)
	metrics.RecordMutation("delete", err)
	return err
}
