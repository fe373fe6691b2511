package book

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CategoryAll 分类筛选中表示"全部分类"的取值
const CategoryAll = "all"

// SortMode 排序方式
type SortMode string

const (
	SortNewest   SortMode = "newest"   // 按ID(创建时间)倒序,默认
	SortTitle    SortMode = "title"    // 按书名升序(中文排序规则)
	SortCategory SortMode = "category" // 按分类升序(中文排序规则)
)

// ParseSortMode 解析排序方式,未知取值回退为SortNewest
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortTitle:
		return SortTitle
	case SortCategory:
		return SortCategory
	default:
		return SortNewest
	}
}

// Query 列表视图的查询条件
type Query struct {
	Search   string   // 搜索词:匹配书名、作者(不区分大小写)或ISBN(区分大小写)
	Category string   // 分类筛选,CategoryAll或空表示不筛选
	Sort     SortMode // 排序方式
}

// Project 根据查询条件生成列表视图
// 纯函数:不修改输入,不依赖任何隐藏状态,可以随时重算
func Project(books []Book, q Query) []Book {
	search := strings.ToLower(q.Search)
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if matchSearch(b, q.Search, search) && matchCategory(b, q.Category) {
			out = append(out, b)
		}
	}

	switch ParseSortMode(string(q.Sort)) {
	case SortTitle:
		sortByText(out, func(b Book) string { return b.Title })
	case SortCategory:
		sortByText(out, func(b Book) string { return b.Category })
	default:
		slices.SortStableFunc(out, compareNewest)
	}
	return out
}

// Categories 返回所有非空分类(去重,按中文排序规则升序),用于分类筛选
func Categories(books []Book) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, b := range books {
		if b.Category == "" {
			continue
		}
		if _, ok := seen[b.Category]; ok {
			continue
		}
		seen[b.Category] = struct{}{}
		out = append(out, b.Category)
	}
	collate.New(language.Chinese).SortStrings(out)
	return out
}

func matchSearch(b Book, raw, lowered string) bool {
	if raw == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), lowered) ||
		strings.Contains(strings.ToLower(b.Author), lowered) ||
		strings.Contains(b.ISBN, raw)
}

func matchCategory(b Book, category string) bool {
	return category == "" || category == CategoryAll || b.Category == category
}

// sortByText 按中文排序规则稳定排序
// Collator内部带缓冲区,不能并发使用,每次排序新建一个
func sortByText(books []Book, key func(Book) string) {
	c := collate.New(language.Chinese)
	slices.SortStableFunc(books, func(a, b Book) int {
		return c.CompareString(key(a), key(b))
	})
}

// compareNewest ID按数字倒序;无法解析为数字的ID排在后面,彼此保持原顺序
func compareNewest(a, b Book) int {
	na, okA := numericID(a.ID)
	nb, okB := numericID(b.ID)
	switch {
	case okA && okB:
		switch {
		case na > nb:
			return -1
		case na < nb:
			return 1
		}
		return 0
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}
