package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/pkg/mq"
)

type recordingPublisher struct {
	keys     []string
	messages []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, message any) error {
	p.keys = append(p.keys, routingKey)
	p.messages = append(p.messages, message)
	return p.err
}

type fakeSubscriber struct {
	deliveries []mq.Delivery
	results    []error
}

func (s *fakeSubscriber) Consume(ctx context.Context, handler mq.Handler) error {
	for _, d := range s.deliveries {
		s.results = append(s.results, handler(ctx, d))
	}
	return nil
}

var occurredAt = time.Date(2026, 10, 15, 9, 30, 0, 0, time.Local)

func TestCatalogPublisher(t *testing.T) {
	pub := &recordingPublisher{}
	event := book.Event{Type: book.EventBorrowed, BookID: "1700000000000", OccurredAt: occurredAt}

	require.NoError(t, NewCatalogPublisher(pub).Publish(context.Background(), event))
	assert.Equal(t, []string{"book.borrowed"}, pub.keys)
	assert.Equal(t, event, pub.messages[0])

	pub.err = errors.New("channel closed")
	assert.Error(t, NewCatalogPublisher(pub).Publish(context.Background(), event))
}

func TestWatch(t *testing.T) {
	sub := &fakeSubscriber{deliveries: []mq.Delivery{
		{RoutingKey: "book.created", Body: []byte(`{"type":"book.created","book_id":"1","occurred_at":"2026-10-15T09:30:00Z"}`)},
		{RoutingKey: "book.updated", Body: []byte(`garbage`)},
		{RoutingKey: "book.deleted", Body: []byte(`{"type":"book.deleted","book_id":"2","occurred_at":"2026-10-15T09:31:00Z"}`)},
	}}

	var got []book.Event
	err := Watch(context.Background(), sub, func(e book.Event) error {
		got = append(got, e)
		if e.Type == book.EventDeleted {
			return errors.New("下游处理失败")
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2, "无法解析的消息被跳过")
	assert.Equal(t, "1", got[0].BookID)
	assert.Equal(t, book.EventDeleted, got[1].Type)
	assert.NoError(t, sub.results[1], "无法解析的消息直接确认")
	assert.Error(t, sub.results[2], "处理失败交给消费者重新入队")
}

func TestDescribe(t *testing.T) {
	borrower := "张三"
	tests := []struct {
		event book.Event
		want  string
	}{
		{
			book.Event{Type: book.EventBorrowed, BookID: "1", Book: &book.Book{ID: "1", Title: "三体", BorrowedBy: &borrower}, OccurredAt: occurredAt},
			"2026-10-15 09:30:00 book.borrowed [1] 《三体》 借阅人:张三",
		},
		{
			book.Event{Type: book.EventImported, Count: 12, OccurredAt: occurredAt},
			"2026-10-15 09:30:00 book.imported 共12本",
		},
		{
			book.Event{Type: book.EventDeleted, BookID: "7", OccurredAt: occurredAt},
			"2026-10-15 09:30:00 book.deleted [7]",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.event))
	}
}
