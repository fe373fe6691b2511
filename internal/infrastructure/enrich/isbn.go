package enrich

import "strings"

// MinISBNLength 规范化后短于该长度的ISBN不发起查询
const MinISBNLength = 10

// NormalizeISBN 转大写,只保留数字和X
// 例如"978-7-5366-9293-0" → "9787536692930","0-306-40615-x" → "030640615X"
func NormalizeISBN(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= '0' && r <= '9') || r == 'X' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
