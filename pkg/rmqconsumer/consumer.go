// Package rmqconsumer reads audit events back from the broker and writes them to
// the structured log.
package rmqconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"secure-share-api/config"
)

// can scale depends on a parallel worker count
const preFetchCount = 1

type Consumer struct {
	cfg         config.MQ
	log         *zap.Logger
	routingKeys []string
	conn        *amqp091.Connection
	chConsume   *amqp091.Channel
	chDelivery  <-chan amqp091.Delivery
}

type auditEvent struct {
	ID      string `json:"event_id"`
	Action  string `json:"action"`
	ActorID string `json:"actor_id"`
	FileID  string `json:"file_id"`
	ShareID string `json:"share_id"`
}

func New(cfg config.MQ, logger *zap.Logger, routingKeys []string) *Consumer {
	return &Consumer{
		cfg:         cfg,
		log:         logger,
		routingKeys: routingKeys,
	}
}

func (c *Consumer) Connect(dsn string) error {
	conn, err := amqp091.Dial(dsn)
	if err != nil {
		return fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	c.conn, c.chConsume = conn, ch

	c.log.Info("rabbitmq consumer connected successfully")

	return nil
}

func (c *Consumer) Init() error {
	if err := c.chConsume.ExchangeDeclare(
		c.cfg.Exchange,
		c.cfg.ExchangeType,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	if _, err := c.chConsume.QueueDeclare(
		c.cfg.QueueName,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, rk := range c.routingKeys {
		if err := c.chConsume.QueueBind(
			c.cfg.QueueName,
			rk,
			c.cfg.Exchange,
			false,
			nil,
		); err != nil {
			return fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := c.chConsume.Qos(preFetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}

	var err error
	c.chDelivery, err = c.chConsume.Consume(
		c.cfg.QueueName,
		"",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	return nil
}

func (c *Consumer) DeliveryWorker(ctx context.Context) {
	c.log.Info("starting delivery worker")

	defer func() {
		c.log.Info("delivery worker gracefully stopped")
	}()

	for {
		select {
		case msg, ok := <-c.chDelivery:
			if !ok {
				c.log.Warn("delivery channel closed")
				return
			}
			if err := c.delivery(msg); err != nil {
				// alert
				c.log.Error("mq read message error", zap.Error(err))
			}
		case <-ctx.Done():
			if c.chConsume != nil {
				_ = c.chConsume.Close()
			}
			if c.conn != nil {
				_ = c.conn.Close()
			}
			return
		}
	}
}

var errEmptyBody = errors.New("empty event body")

func (c *Consumer) delivery(msg amqp091.Delivery) error {
	if len(msg.Body) == 0 {
		return errEmptyBody
	}

	var e auditEvent
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return fmt.Errorf("decode event %s: %w", msg.MessageId, err)
	}
	if e.Action == "" {
		e.Action = msg.RoutingKey
	}

	c.log.Info("audit event",
		zap.String("action", e.Action),
		zap.String("event_id", e.ID),
		zap.String("actor_id", e.ActorID),
		zap.String("file_id", e.FileID),
		zap.String("share_id", e.ShareID),
	)

	return nil
}
