package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "github.com/IT21309038/Mini-Job-Board/internal/lib/logger"
	"github.com/IT21309038/Mini-Job-Board/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrConsumerClosed = errors.New("rabbitmq: delivery channel closed")

// Handler delivers one decoded message. A non-nil error drops the message.
type Handler func(ctx context.Context, msg models.Message) error

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel channel
	queue   string
}

func New(urlForConn string, queueName string) (*RabbitMQClient, error) {
	const op = "rabbitmq.New"

	conn, err := amqp.Dial(urlForConn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(
		queueName, true, false, false, false, nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: ch,
		queue:   q.Name,
	}, nil
}

// SendMessage publishes msg as persistent JSON to the queue.
func (r *RabbitMQClient) SendMessage(ctx context.Context, msg models.Message) error {
	const op = "rabbitmq.SendMessage"

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		"",
		r.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// StartReading consumes the queue one message at a time with manual acks
// until ctx is done.
func (r *RabbitMQClient) StartReading(ctx context.Context, log *slog.Logger, h Handler) error {
	const op = "rabbitmq.StartReading"

	if err := r.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	deliveries, err := r.channel.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("%s: %w", op, ErrConsumerClosed)
			}
			handle(ctx, log, d, h)
		}
	}
}

// handle acks undecodable messages so they are not redelivered, and nacks
// without requeue when delivery fails.
func handle(ctx context.Context, log *slog.Logger, d amqp.Delivery, h Handler) {
	var msg models.Message
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Error("failed to unmarshal message", sl.Err(err))
		if err := d.Ack(false); err != nil {
			log.Error("failed to ack message", sl.Err(err))
		}
		return
	}

	if err := h(ctx, msg); err != nil {
		log.Error("failed to handle message", slog.String("to", msg.To), sl.Err(err))
		if err := d.Nack(false, false); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}

func (r *RabbitMQClient) Close() {
	_ = r.channel.Close()
	if r.conn != nil {
		_ = r.conn.Close()
	}
}
