package book

import (
	"context"
	"time"
)

// EventType 目录变更事件类型(同时用作消息路由键)
type EventType string

const (
	EventCreated  EventType = "book.created"
	EventUpdated  EventType = "book.updated"
	EventDeleted  EventType = "book.deleted"
	EventBorrowed EventType = "book.borrowed"
	EventReturned EventType = "book.returned"
	EventImported EventType = "book.imported"
)

// Event 目录变更事件
// 只在变更成功写入存储之后发出
type Event struct {
	Type       EventType `json:"type"`
	BookID     string    `json:"book_id,omitempty"`
	Book       *Book     `json:"book,omitempty"`
	Count      int       `json:"count,omitempty"` // 导入事件:导入后的图书总数
	OccurredAt time.Time `json:"occurred_at"`
}

// EventPublisher 事件发布接口
// 发布失败只记录日志,不影响已完成的变更
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
