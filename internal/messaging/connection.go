package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/models"
)

// Exchange and queue names
const (
	OrdersExchange        = "orders_topic"
	NotificationsExchange = "notifications_fanout"

	KitchenDineInQueue   = "kitchen_dine_in_queue"
	KitchenTakeoutQueue  = "kitchen_takeout_queue"
	KitchenDeliveryQueue = "kitchen_delivery_queue"
	NotificationsQueue   = "notifications_queue"
)

const maxConnectAttempts = 5

// kitchenBindings routes every order to exactly one queue, by order type
var kitchenBindings = []struct {
	orderType  models.OrderType
	queue      string
	routingKey string
}{
	{models.DineIn, KitchenDineInQueue, "kitchen.dine_in.*"},
	{models.Takeout, KitchenTakeoutQueue, "kitchen.takeout.*"},
	{models.Delivery, KitchenDeliveryQueue, "kitchen.delivery.*"},
}

// KitchenQueuesFor returns the queues a station cooking orderTypes consumes.
// No specialization means every queue.
func KitchenQueuesFor(orderTypes []models.OrderType) []string {
	var queues []string
	for _, b := range kitchenBindings {
		if len(orderTypes) == 0 {
			queues = append(queues, b.queue)
			continue
		}
		for _, t := range orderTypes {
			if t == b.orderType {
				queues = append(queues, b.queue)
				break
			}
		}
	}
	return queues
}

// Connection wraps a RabbitMQ connection with reconnection logic
type Connection struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  *logger.Logger
	url     string
}

// New dials RabbitMQ and declares the topology
func New(ctx context.Context, url string, log *logger.Logger) (*Connection, error) {
	c := &Connection{logger: log, url: url}
	if err := c.connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to establish initial connection: %w", err)
	}
	return c, nil
}

// connect must be called with mu held or before the connection is shared
func (c *Connection) connect(ctx context.Context) error {
	var err error
	for i := 0; i < maxConnectAttempts; i++ {
		c.conn, err = amqp091.Dial(c.url)
		if err == nil {
			c.channel, err = c.conn.Channel()
			if err == nil {
				if err = setupTopology(c.channel); err == nil {
					c.logger.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", nil)
					return nil
				}
				c.logger.Error("rabbitmq_setup_failed", "Failed to set up topology", "startup", err, nil)
			}
			c.closeLocked()
		}

		if i < maxConnectAttempts-1 {
			wait := time.Duration(i+1) * 2 * time.Second
			c.logger.Error("rabbitmq_connection_failed",
				fmt.Sprintf("Failed to connect to RabbitMQ, retrying in %v", wait),
				"startup", err, nil)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxConnectAttempts, err)
}

func setupTopology(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(OrdersExchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}
	if err := ch.ExchangeDeclare(NotificationsExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare %s exchange: %w", NotificationsExchange, err)
	}

	for _, b := range kitchenBindings {
		_, err := ch.QueueDeclare(b.queue, true, false, false, false, amqp091.Table{
			"x-message-ttl":  300000, // 5 minutes
			"x-max-priority": 10,
		})
		if err != nil {
			return fmt.Errorf("failed to declare queue %s: %w", b.queue, err)
		}
		if err := ch.QueueBind(b.queue, b.routingKey, OrdersExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s with routing key %s: %w", b.queue, b.routingKey, err)
		}
	}

	if _, err := ch.QueueDeclare(NotificationsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare notifications queue: %w", err)
	}
	if err := ch.QueueBind(NotificationsQueue, "", NotificationsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind notifications queue: %w", err)
	}
	return nil
}

// declareFeedQueue creates a server-named queue that lives as long as this
// connection and receives a copy of every status update.
func (c *Connection) declareFeedQueue() (string, error) {
	ch := c.Channel()
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("failed to declare feed queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", NotificationsExchange, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind feed queue: %w", err)
	}
	return q.Name, nil
}

// Channel returns the current channel
func (c *Connection) Channel() *amqp091.Channel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Connection) closeLocked() error {
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsClosed checks if the connection is closed
func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn == nil || c.conn.IsClosed()
}

// Reconnect drops the current connection and dials again
func (c *Connection) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.closeLocked()
	return c.connect(ctx)
}
