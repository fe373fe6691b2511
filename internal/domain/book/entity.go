package book

import (
	"bytes"
	"encoding/json"
)

// Book 图书记录(目录中唯一的实体)
// 设计说明:
// 1. ID由创建时间戳(毫秒)生成,创建后不可修改、不可复用
// 2. ISBN在整个目录中唯一(区分大小写,按存储值比较)
// 3. BorrowedBy为nil表示"在库",非nil表示已借出;只能通过借阅/归还改变
// 4. JSON字段名与本地存储的序列化格式保持一致
type Book struct {
	ID         string  `json:"id" yaml:"id"`
	Title      string  `json:"title" yaml:"title"`
	Author     string  `json:"author" yaml:"author"`
	ISBN       string  `json:"isbn" yaml:"isbn"`
	Category   string  `json:"category" yaml:"category"`
	BorrowedBy *string `json:"borrowedBy,omitempty" yaml:"borrowedBy,omitempty"`
}

// UnmarshalJSON 兼容数字形式的id(手工编辑或其他工具导出的数据)
func (b *Book) UnmarshalJSON(data []byte) error {
	type plain Book
	var raw struct {
		plain
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*b = Book(raw.plain)
	b.ID = ""
	id := bytes.TrimSpace(raw.ID)
	switch {
	case len(id) == 0 || bytes.Equal(id, []byte("null")):
	case id[0] == '"':
		return json.Unmarshal(id, &b.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(id, &n); err != nil {
			return err
		}
		b.ID = n.String()
	}
	return nil
}

// clone 深拷贝(BorrowedBy指向独立的字符串)
func (b Book) clone() Book {
	if b.BorrowedBy != nil {
		borrower := *b.BorrowedBy
		b.BorrowedBy = &borrower
	}
	return b
}

// IsBorrowed 是否已借出
func (b Book) IsBorrowed() bool {
	return b.BorrowedBy != nil
}

// Borrower 借阅人(未借出时为空字符串)
func (b Book) Borrower() string {
	if b.BorrowedBy == nil {
		return ""
	}
	return *b.BorrowedBy
}

// Fields 新建图书时填写的字段
type Fields struct {
	Title    string
	Author   string
	ISBN     string
	Category string
}

// Patch 更新图书时可修改的字段
// 只列出可变字段;ID和BorrowedBy不在其中,借阅状态只能通过Borrow/Return修改
// nil表示保持原值
type Patch struct {
	Title    *string
	Author   *string
	ISBN     *string
	Category *string
}

// PatchFromFields 用完整表单构造Patch(表单提交时四个字段都会覆盖)
func PatchFromFields(f Fields) Patch {
	return Patch{
		Title:    &f.Title,
		Author:   &f.Author,
		ISBN:     &f.ISBN,
		Category: &f.Category,
	}
}

// apply 将Patch合并到图书上
func (p Patch) apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
}

// Stats 仪表盘统计
type Stats struct {
	Total      int `json:"total" yaml:"total"`           // 图书总数
	Borrowed   int `json:"borrowed" yaml:"borrowed"`     // 已借出数量
	Categories int `json:"categories" yaml:"categories"` // 分类数(不含空分类)
	Authors    int `json:"authors" yaml:"authors"`       // 作者数
}

// ComputeStats 根据图书列表计算统计数据
func ComputeStats(books []Book) Stats {
	categories := make(map[string]struct{})
	authors := make(map[string]struct{})
	stats := Stats{Total: len(books)}

	for _, b := range books {
		if b.IsBorrowed() {
			stats.Borrowed++
		}
		if b.Category != "" {
			categories[b.Category] = struct{}{}
		}
		authors[b.Author] = struct{}{}
	}

	stats.Categories = len(categories)
	stats.Authors = len(authors)
	return stats
}
