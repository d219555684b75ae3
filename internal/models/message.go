package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderMessage is the kitchen ticket published for each submitted order
type OrderMessage struct {
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	OrderType       OrderType       `json:"order_type"`
	TableNumber     *int            `json:"table_number"`
	DeliveryAddress *string         `json:"delivery_address"`
	Lines           []OrderLine     `json:"lines"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Priority        int             `json:"priority"`
}

// StatusUpdateMessage represents a status update notification
type StatusUpdateMessage struct {
	OrderNumber         string     `json:"order_number"`
	OldStatus           string     `json:"old_status"`
	NewStatus           string     `json:"new_status"`
	ChangedBy           string     `json:"changed_by"`
	Timestamp           time.Time  `json:"timestamp"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
}

// NewOrderMessage builds the kitchen ticket for a stored order
func NewOrderMessage(order *OrderRecord) *OrderMessage {
	return &OrderMessage{
		OrderNumber:     order.Number,
		CustomerName:    order.CustomerName,
		OrderType:       order.Type,
		TableNumber:     order.TableNumber,
		DeliveryAddress: order.DeliveryAddress,
		Lines:           order.Lines,
		Notes:           order.Notes,
		TotalAmount:     order.Total,
		Priority:        order.Priority,
	}
}

// CreateStatusUpdateMessage creates a StatusUpdateMessage for order status changes
func CreateStatusUpdateMessage(orderNumber, oldStatus, newStatus, changedBy string, estimatedCompletion *time.Time) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		OrderNumber:         orderNumber,
		OldStatus:           oldStatus,
		NewStatus:           newStatus,
		ChangedBy:           changedBy,
		Timestamp:           time.Now().UTC(),
		EstimatedCompletion: estimatedCompletion,
	}
}

// CookingTimes maps an order type to its simulated preparation time
type CookingTimes map[OrderType]time.Duration

// DefaultCookingTimes returns the stock preparation times
func DefaultCookingTimes() CookingTimes {
	return CookingTimes{
		DineIn:   8 * time.Second,
		Takeout:  10 * time.Second,
		Delivery: 12 * time.Second,
	}
}

// For returns the cooking time for an order type, 10s when unknown
func (c CookingTimes) For(orderType OrderType) time.Duration {
	if d, ok := c[orderType]; ok && d > 0 {
		return d
	}
	return 10 * time.Second
}

// GenerateRoutingKey generates a routing key for order messages
func GenerateRoutingKey(orderType OrderType, priority int) string {
	return fmt.Sprintf("kitchen.%s.%d", orderType, priority)
}
