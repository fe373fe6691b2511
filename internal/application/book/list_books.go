package book

import (
	"github.com/xiebiao/bookshelf/internal/domain/book"
)

// ListBooksUseCase 图书列表查询用例
// 设计说明:
// 1. 搜索、分类筛选、排序都在内存中完成(book.Project),不访问存储
// 2. 统计数据与分类列表基于完整目录,不受筛选条件影响
type ListBooksUseCase struct {
	catalog *book.Catalog
}

// NewListBooksUseCase 创建列表查询用例
func NewListBooksUseCase(catalog *book.Catalog) *ListBooksUseCase {
	return &ListBooksUseCase{catalog: catalog}
}

// ListBooksRequest 列表查询请求DTO
type ListBooksRequest struct {
	Search   string // 匹配书名、作者(不区分大小写)和ISBN
	Category string // 空或"all"表示全部
	Sort     string // newest | title | category,其他值按newest处理
}

// ListBooksResponse 列表查询响应DTO
type ListBooksResponse struct {
	List       []book.Book `json:"list"`
	Total      int         `json:"total"` // 筛选后的数量
	Categories []string    `json:"categories"`
	Stats      book.Stats  `json:"stats"`
}

// Execute 执行列表查询
func (uc *ListBooksUseCase) Execute(req ListBooksRequest) *ListBooksResponse {
	books := uc.catalog.Books()
	list := book.Project(books, book.Query{
		Search:   req.Search,
		Category: req.Category,
		Sort:     book.ParseSortMode(req.Sort),
	})

	return &ListBooksResponse{
		List:       list,
		Total:      len(list),
		Categories: book.Categories(books),
		Stats:      uc.catalog.Metrics(),
	}
}

// Get 查询单本图书
func (uc *ListBooksUseCase) Get(id string) (book.Book, error) {
	return uc.catalog.Get(id)
}

// Categories 分类列表(筛选按钮)
func (uc *ListBooksUseCase) Categories() []string {
	return book.Categories(uc.catalog.Books())
}

// Stats 仪表盘统计
func (uc *ListBooksUseCase) Stats() book.Stats {
	return uc.catalog.Metrics()
}
