package enrich

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// SourceGoogleBooks Google Books(备用来源,不提供分类)
const SourceGoogleBooks = "googlebooks"

// GoogleBooks Google Books Volumes API
// GET {base}/books/v1/volumes?q=isbn:<isbn>,取items[0].volumeInfo
type GoogleBooks struct {
	baseURL string
	client  *http.Client
}

// NewGoogleBooks 创建Google Books查询源
func NewGoogleBooks(baseURL string, client *http.Client) *GoogleBooks {
	return &GoogleBooks{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (p *GoogleBooks) Name() string { return SourceGoogleBooks }

type googleVolumes struct {
	Items []struct {
		VolumeInfo struct {
			Title   string   `json:"title"`
			Authors []string `json:"authors"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (p *GoogleBooks) Lookup(ctx context.Context, isbn string) (*Result, error) {
	query := url.Values{}
	query.Set("q", "isbn:"+isbn)

	var data googleVolumes
	if err := getJSON(ctx, p.client, p.baseURL+"/books/v1/volumes?"+query.Encode(), &data); err != nil {
		return nil, err
	}
	if len(data.Items) == 0 {
		return nil, nil
	}

	info := data.Items[0].VolumeInfo
	return &Result{
		Found:  true,
		Title:  info.Title,
		Author: strings.Join(info.Authors, ", "),
		Source: SourceGoogleBooks,
	}, nil
}
