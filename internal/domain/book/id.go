package book

import (
	"strconv"
	"time"
)

// idGenerator 基于创建时间戳生成图书ID
// 规则:
// - ID = 当前毫秒时间戳的十进制字符串
// - 同一毫秒内(或时钟回拨)创建多本书时,取上一次ID+1,保证单调递增
// - ID一旦分配永不复用
type idGenerator struct {
	now  func() time.Time
	last int64
}

func newIDGenerator(now func() time.Time) *idGenerator {
	if now == nil {
		now = time.Now
	}
	return &idGenerator{now: now}
}

// observe 记录已存在的ID(加载、导入后调用),避免新ID与之冲突
func (g *idGenerator) observe(id string) {
	if n, ok := numericID(id); ok && n > g.last {
		g.last = n
	}
}

// next 生成下一个ID
func (g *idGenerator) next() string {
	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return strconv.FormatInt(n, 10)
}

// numericID 把ID解析为数字(ID本质上是创建时间戳)
func numericID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
