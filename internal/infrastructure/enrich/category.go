package enrich

import "strings"

// 根据主题推断的分类
const (
	CategoryProgramming = "编程"
	CategoryLiterature  = "文学"
	CategoryScience     = "科技"
	CategoryArt         = "艺术"
	CategoryOther       = "其它"
)

// categoryRules 按顺序匹配,先命中者优先
var categoryRules = []struct {
	category string
	keywords []string
}{
	{CategoryProgramming, []string{"computer", "program", "technology"}},
	{CategoryLiterature, []string{"fiction", "literature"}},
	{CategoryScience, []string{"science", "physics", "math"}},
	{CategoryArt, []string{"art", "design"}},
}

// ClassifySubjects 由主题列表推断分类
// 主题拼接后整体小写做子串匹配,所以"Computer programs"同时命中computer和program;
// 没有任何规则命中时归为"其它"
func ClassifySubjects(subjects []string) string {
	joined := strings.ToLower(strings.Join(subjects, " "))
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(joined, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
