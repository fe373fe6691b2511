package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SourceOpenLibrary Open Library(免费、无需Key)
const SourceOpenLibrary = "openlibrary"

// OpenLibrary Open Library Books API
// GET {base}/api/books?bibkeys=ISBN:<isbn>&format=json&jscmd=data
// 响应以"ISBN:<isbn>"为键,没有该书时返回空对象{}(偶尔是值为null的键)
type OpenLibrary struct {
	baseURL string
	client  *http.Client
}

// NewOpenLibrary 创建Open Library查询源
func NewOpenLibrary(baseURL string, client *http.Client) *OpenLibrary {
	return &OpenLibrary{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *OpenLibrary) Name() string { return SourceOpenLibrary }

type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Subjects []struct {
		Name string `json:"name"`
	} `json:"subjects"`
}

func (p *OpenLibrary) Lookup(ctx context.Context, isbn string) (*Result, error) {
	bibkey := "ISBN:" + isbn
	query := url.Values{}
	query.Set("bibkeys", bibkey)
	query.Set("format", "json")
	query.Set("jscmd", "data")

	var data map[string]*openLibraryBook
	if err := getJSON(ctx, p.client, p.baseURL+"/api/books?"+query.Encode(), &data); err != nil {
		return nil, err
	}

	// 键不存在或值为null都视为没有该书
	info := data[bibkey]
	if info == nil {
		return nil, nil
	}

	result := &Result{Found: true, Title: info.Title, Source: SourceOpenLibrary}
	if len(info.Authors) > 0 {
		names := make([]string, 0, len(info.Authors))
		for _, a := range info.Authors {
			names = append(names, a.Name)
		}
		result.Author = strings.Join(names, ", ")
	}
	// 只有返回了主题列表才推断分类
	if info.Subjects != nil {
		subjects := make([]string, 0, len(info.Subjects))
		for _, s := range info.Subjects {
			subjects = append(subjects, s.Name)
		}
		result.Category = ClassifySubjects(subjects)
	}
	return result, nil
}
