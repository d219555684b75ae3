package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/models"
)

// Publisher handles message publishing to RabbitMQ
type Publisher struct {
	mu     sync.Mutex
	conn   *Connection
	logger *logger.Logger
}

// NewPublisher creates a new message publisher
func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{conn: conn, logger: log}
}

// PublishOrder sends a kitchen ticket to the orders topic exchange
func (p *Publisher) PublishOrder(ctx context.Context, msg *models.OrderMessage) error {
	routingKey := models.GenerateRoutingKey(msg.OrderType, msg.Priority)
	return p.publish(ctx, OrdersExchange, routingKey, msg, uint8(msg.Priority), true)
}

// PublishStatusUpdate broadcasts a status change on the notifications fanout
func (p *Publisher) PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error {
	return p.publish(ctx, NotificationsExchange, "", msg, 0, false)
}

func (p *Publisher) publish(ctx context.Context, exchange, routingKey string, message interface{}, priority uint8, persistent bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(ctx); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Transient,
		Timestamp:    time.Now(),
		Priority:     priority,
	}
	if persistent {
		publishing.DeliveryMode = amqp091.Persistent
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.conn.Channel().PublishWithContext(ctx, exchange, routingKey, false, false, publishing); err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", exchange),
			"", err, map[string]interface{}{
				"exchange":    exchange,
				"routing_key": routingKey,
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", exchange),
		"", map[string]interface{}{
			"exchange":     exchange,
			"routing_key":  routingKey,
			"message_size": len(body),
		})
	return nil
}
