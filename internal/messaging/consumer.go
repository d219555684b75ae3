package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-ordering/internal/logger"
)

// MessageHandler processes one message body. A nil error acks the delivery,
// an error nacks it with requeue.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer handles message consumption from one RabbitMQ queue
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
	timeout     time.Duration
	// feed consumers read a private queue bound to the notifications fanout,
	// redeclared after every reconnect
	feed bool
}

// NewConsumer creates a consumer for a named queue
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
		timeout:     30 * time.Second,
	}
}

// NewFeedConsumer creates a consumer that receives its own copy of every
// status update, independent of other subscribers.
func NewFeedConsumer(conn *Connection, log *logger.Logger, consumerTag string) *Consumer {
	c := NewConsumer(conn, log, "", consumerTag, 10)
	c.feed = true
	return c
}

// StartConsuming consumes until ctx is cancelled, reconnecting when the broker
// closes the delivery channel.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			c.logger.Info("consumer_stopped", "Consumer stopped by context", "", map[string]interface{}{
				"consumer": c.consumerTag,
			})
			return ctx.Err()
		}
		if !errors.Is(err, errDeliveriesClosed) {
			return err
		}

		c.logger.Error("consumer_channel_closed", "Message channel closed, attempting to reconnect", "", nil, map[string]interface{}{
			"queue": c.queueName,
		})
		if err := c.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect after channel closed: %w", err)
		}
	}
}

var errDeliveriesClosed = errors.New("delivery channel closed")

func (c *Consumer) consumeOnce(ctx context.Context, handler MessageHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	if c.feed {
		name, err := c.conn.declareFeedQueue()
		if err != nil {
			return err
		}
		c.queueName = name
	}

	ch := c.conn.Channel()
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer_started",
		fmt.Sprintf("Started consuming from queue %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			c.processMessage(ctx, d, handler)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, delivery amqp091.Delivery, handler MessageHandler) {
	start := time.Now()

	c.logger.Debug("message_received", "Processing message", "", map[string]interface{}{
		"queue":        c.queueName,
		"routing_key":  delivery.RoutingKey,
		"message_size": len(delivery.Body),
		"delivery_tag": delivery.DeliveryTag,
	})

	processingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := handler(processingCtx, delivery.Body)
	fields := map[string]interface{}{
		"queue":        c.queueName,
		"routing_key":  delivery.RoutingKey,
		"duration_ms":  time.Since(start).Milliseconds(),
		"delivery_tag": delivery.DeliveryTag,
	}

	if err != nil {
		c.logger.Error("message_processing_failed", "Failed to process message", "", err, fields)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("message_nack_failed", "Failed to nack message", "", nackErr, nil)
		}
		return
	}

	c.logger.Debug("message_processed", "Successfully processed message", "", fields)
	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("message_ack_failed", "Failed to ack message", "", ackErr, nil)
	}
}

// Close cancels the consumer and closes the connection
func (c *Consumer) Close() error {
	if c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	if err := c.conn.Channel().Cancel(c.consumerTag, false); err != nil {
		c.logger.Error("consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
	}
	return c.conn.Close()
}
