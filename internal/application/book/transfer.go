package book

import (
	"context"
	"time"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// ExportFilename 备份文件名:图书备份_<YYYY-MM-DD>.json
func ExportFilename(t time.Time) string {
	return "图书备份_" + t.Format("2006-01-02") + ".json"
}

// TransferUseCase 导入导出
type TransferUseCase struct {
	catalog *book.Catalog
	now     func() time.Time
}

// NewTransferUseCase 创建导入导出用例
func NewTransferUseCase(catalog *book.Catalog) *TransferUseCase {
	return &TransferUseCase{catalog: catalog, now: time.Now}
}

// Export 导出整个目录,返回建议的文件名和内容
func (uc *TransferUseCase) Export() (string, []byte, error) {
	data, err := uc.catalog.Export()
	if err != nil {
		return "", nil, err
	}
	return ExportFilename(uc.now()), data, nil
}

// Import 用文件内容整体替换目录,返回导入后的图书数量
func (uc *TransferUseCase) Import(ctx context.Context, data []byte) (int, error) {
	n, err := uc.catalog.Import(ctx, data)
	metrics.RecordMutation("import", err)
	return n, err
}
