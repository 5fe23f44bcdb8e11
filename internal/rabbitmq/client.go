package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/GoArmGo/PromptReveal/internal/config"
	"github.com/GoArmGo/PromptReveal/internal/messaging/payloads"
)

// Client представляет собой клиент RabbitMQ для очереди очистки "осиротевших" объектов
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewClient создает и инициализирует новый клиент RabbitMQ
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := &Client{logger: logger}

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// Объявление очереди идемпотентно
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName, // name
		true,                           // durable
		false,                          // delete when unused
		false,                          // exclusive
		false,                          // no-wait
		nil,                            // arguments
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q

	// воркер берёт по одному сообщению за раз
	if err := ch.Qos(1, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set channel qos: %w", err)
	}

	logger.Info("rabbitmq queue declared", "queue", q.Name, "messages", q.Messages)
	return client, nil
}

// Close закрывает соединение и канал RabbitMQ
func (c *Client) Close() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing rabbitmq connection", "error", err)
		}
	}
	c.logger.Info("rabbitmq connection closed")
}

// PublishOrphanCleanup публикует задачу на удаление объектов.
// Реализует ports.OrphanCleanupPublisher.
func (c *Client) PublishOrphanCleanup(ctx context.Context, payload payloads.OrphanCleanupPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    payload.OccurredAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}
	c.logger.Info("orphan cleanup published", "queue", c.queue.Name, "keys", payload.Keys)
	return nil
}

// StartConsumingOrphanCleanup начинает потребление сообщений из очереди.
// Реализует ports.OrphanCleanupConsumer.
func (c *Client) StartConsumingOrphanCleanup(ctx context.Context, handler func(context.Context, payloads.OrphanCleanupPayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered", "queue", c.queue.Name)

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					c.logger.Info("rabbitmq delivery channel closed, stopping consumer")
					return
				}
				c.settle(msg, decide(ctx, msg.Body, msg.Redelivered, handler, c.logger))
			case <-ctx.Done():
				c.logger.Info("context cancelled, stopping rabbitmq consumer")
				return
			}
		}
	}()

	return nil
}

func (c *Client) settle(msg amqp.Delivery, o outcome) {
	var err error
	switch o {
	case outcomeAck:
		err = msg.Ack(false)
	case outcomeRequeue:
		err = msg.Nack(false, true)
	default:
		err = msg.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("failed to settle rabbitmq message", "outcome", o, "error", err)
	}
}

type outcome string

const (
	outcomeAck     outcome = "ack"
	outcomeRequeue outcome = "requeue"
	outcomeDrop    outcome = "drop"
)

// decide разбирает сообщение и вызывает handler. Битое сообщение отбрасывается;
// неудачная обработка повторяется один раз, повторная неудача отбрасывает сообщение.
func decide(ctx context.Context, body []byte, redelivered bool, handler func(context.Context, payloads.OrphanCleanupPayload) error, logger *slog.Logger) outcome {
	var payload payloads.OrphanCleanupPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("malformed orphan cleanup message", "error", err, "body", string(body))
		return outcomeDrop
	}

	if err := handler(ctx, payload); err != nil {
		if redelivered {
			logger.Error("orphan cleanup failed again, dropping", "keys", payload.Keys, "error", err)
			return outcomeDrop
		}
		logger.Warn("orphan cleanup failed, requeueing", "keys", payload.Keys, "error", err)
		return outcomeRequeue
	}
	return outcomeAck
}
