// Package mq RabbitMQ消息发布与消费
//
// 图书目录每次变更成功后发布一条事件(routing key为事件类型,如book.borrowed),
// 消费者按routing key通配符订阅(如book.*)。
//
// Exchange使用topic类型并持久化;消费者手动确认,处理失败的消息重新入队。
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xiebiao/bookshelf/pkg/metrics"
)

// Publisher 消息发布者
// amqp.Channel不支持并发发布,Publish内部加锁
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher 连接RabbitMQ并声明Exchange
func NewPublisher(url, exchange, exchangeType string, logger *zap.Logger) (*Publisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, channel, err := dialExchange(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	logger.Info("消息发布者已创建", zap.String("exchange", exchange), zap.String("type", exchangeType))
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Publish 发布JSON消息
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	msg, err := newPublishing(message, time.Now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}

	metrics.IncCounterVec(metrics.MessagesPublishedTotal, map[string]string{
		"exchange":    p.exchange,
		"routing_key": routingKey,
	})
	p.logger.Debug("消息已发布", zap.String("routing_key", routingKey), zap.Int("bytes", len(msg.Body)))
	return nil
}

// Close 关闭连接
func (p *Publisher) Close() error {
	closeAll(p.channel, p.conn)
	return nil
}

// Delivery 收到的消息
type Delivery struct {
	RoutingKey string
	Body       []byte
	Timestamp  time.Time
}

// Handler 消息处理函数,返回错误时消息重新入队
type Handler func(ctx context.Context, d Delivery) error

// Consumer 消息消费者
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	logger  *zap.Logger
}

// NewConsumer 声明Exchange和Queue,并按routingKeys绑定
// queue为空时声明一个独占的临时队列(连接断开后自动删除)
func NewConsumer(url, exchange, exchangeType, queue string, routingKeys []string, logger *zap.Logger) (*Consumer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, channel, err := dialExchange(url, exchange, exchangeType)
	if err != nil {
		return nil, err
	}

	durable, exclusive := true, false
	if queue == "" {
		durable, exclusive = false, true
	}
	q, err := channel.QueueDeclare(queue, durable, !durable, exclusive, false, nil)
	if err != nil {
		closeAll(channel, conn)
		return nil, fmt.Errorf("声明Queue失败: %w", err)
	}

	for _, key := range routingKeys {
		if err := channel.QueueBind(q.Name, key, exchange, false, nil); err != nil {
			closeAll(channel, conn)
			return nil, fmt.Errorf("绑定Queue失败: %w", err)
		}
	}

	logger.Info("消息消费者已创建", zap.String("queue", q.Name), zap.Strings("routing_keys", routingKeys))
	return &Consumer{
		conn:    conn,
		channel: channel,
		queue:   q.Name,
		logger:  logger,
	}, nil
}

// Consume 阻塞消费,直到ctx取消(返回nil)或连接断开(返回错误)
func (c *Consumer) Consume(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("设置Qos失败: %w", err)
	}

	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("开始消费失败: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("消息Channel已关闭")
			}
			c.handle(ctx, msg, handler)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg amqp.Delivery, handler Handler) {
	start := time.Now()
	err := handler(ctx, Delivery{RoutingKey: msg.RoutingKey, Body: msg.Body, Timestamp: msg.Timestamp})
	metrics.ObserveHistogram(metrics.MessageProcessingDuration, time.Since(start).Seconds())

	result := "success"
	if err != nil {
		result = "failure"
		c.logger.Warn("消息处理失败,重新入队", zap.String("routing_key", msg.RoutingKey), zap.Error(err))
		_ = msg.Nack(false, true)
	} else {
		_ = msg.Ack(false)
	}
	metrics.IncCounterVec(metrics.MessagesConsumedTotal, map[string]string{"queue": c.queue, "result": result})
}

// Close 关闭连接
func (c *Consumer) Close() error {
	closeAll(c.channel, c.conn)
	return nil
}

func dialExchange(url, exchange, exchangeType string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("连接RabbitMQ失败: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("创建Channel失败: %w", err)
	}

	if err := channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil); err != nil {
		closeAll(channel, conn)
		return nil, nil, fmt.Errorf("声明Exchange失败: %w", err)
	}
	return conn, channel, nil
}

// newPublishing 序列化为持久化的JSON消息
func newPublishing(message any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(message)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("消息序列化失败: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
	}, nil
}

func closeAll(channel *amqp.Channel, conn *amqp.Connection) {
	if channel != nil {
		_ = channel.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}
