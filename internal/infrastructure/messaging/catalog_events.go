// Package messaging 目录变更事件与消息队列之间的适配
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

// RoutingKeyAll 订阅全部目录事件
const RoutingKeyAll = "book.*"

// Publisher 消息发布(*mq.Publisher实现此接口)
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Subscriber 消息订阅(*mq.Consumer实现此接口)
type Subscriber interface {
	Consume(ctx context.Context, handler mq.Handler) error
}

// CatalogPublisher 把目录事件发布到消息队列,事件类型作为routing key
type CatalogPublisher struct {
	pub Publisher
}

// NewCatalogPublisher 创建目录事件发布者
func NewCatalogPublisher(pub Publisher) *CatalogPublisher {
	return &CatalogPublisher{pub: pub}
}

// Publish 实现book.EventPublisher
func (p *CatalogPublisher) Publish(ctx context.Context, event book.Event) error {
	return p.pub.Publish(ctx, string(event.Type), event)
}

// DecodeEvent 解析消息体
func DecodeEvent(body []byte) (book.Event, error) {
	var e book.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return book.Event{}, fmt.Errorf("无法解析目录事件: %w", err)
	}
	return e, nil
}

// Watch 消费目录事件直到ctx取消
// 无法解析的消息直接确认丢弃(重新入队也无法处理)
func Watch(ctx context.Context, sub Subscriber, fn func(book.Event) error) error {
	return sub.Consume(ctx, func(_ context.Context, d mq.Delivery) error {
		e, err := DecodeEvent(d.Body)
		if err != nil {
			return nil
		}
		return fn(e)
	})
}

// Describe 单行描述,用于命令行输出
func Describe(e book.Event) string {
	var b strings.Builder
	b.WriteString(e.OccurredAt.Format("2006-01-02 15:04:05"))
	b.WriteString(" ")
	b.WriteString(string(e.Type))

	switch {
	case e.Type == book.EventImported:
		fmt.Fprintf(&b, " 共%d本", e.Count)
	case e.Book != nil:
		fmt.Fprintf(&b, " [%s] 《%s》", e.Book.ID, e.Book.Title)
		if e.Book.IsBorrowed() {
			fmt.Fprintf(&b, " 借阅人:%s", e.Book.Borrower())
		}
	case e.BookID != "":
		fmt.Fprintf(&b, " [%s]", e.BookID)
	}
	return b.String()
}
