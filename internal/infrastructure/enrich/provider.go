package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Provider 图书信息来源
// Lookup约定:
//   - 查到:返回(*Result, nil)
//   - 没有该书:返回(nil, nil),由调用方决定是否换下一个来源
//   - 网络错误、非200状态、响应无法解析:返回(nil, error)
type Provider interface {
	Name() string
	Lookup(ctx context.Context, isbn string) (*Result, error)
}

// getJSON GET请求并解析JSON响应
func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}
	return nil
}
