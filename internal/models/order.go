package models

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType represents the type of an order
type OrderType string

const (
	DineIn   OrderType = "dine_in"
	Takeout  OrderType = "takeout"
	Delivery OrderType = "delivery"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	StatusReceived  OrderStatus = "received"
	StatusCooking   OrderStatus = "cooking"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

const maxOrderLines = 20

// MaxLineQuantity is the largest quantity one order line may carry
const MaxLineQuantity = 99

var (
	highPriorityThreshold   = decimal.NewFromInt(100)
	mediumPriorityThreshold = decimal.NewFromInt(50)

	validNamePattern = regexp.MustCompile(`^[\p{L}\s\-'.]+$`)
)

// ErrNotFound is returned when an order, table or dish does not exist
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// OrderLine is one dish of a submitted order, priced at submission time
type OrderLine struct {
	DishID    int             `json:"dish_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Subtotal returns quantity × unit price
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// OrderRecord is a submitted order as stored in the database and the ledger
type OrderRecord struct {
	ID              string          `json:"id"`
	Number          string          `json:"order_number"`
	Type            OrderType       `json:"order_type"`
	CustomerName    string          `json:"customer_name"`
	TableNumber     *int            `json:"table_number,omitempty"`
	DeliveryAddress *string         `json:"delivery_address,omitempty"`
	Lines           []OrderLine     `json:"lines"`
	Notes           string          `json:"notes,omitempty"`
	Total           decimal.Decimal `json:"total"`
	Priority        int             `json:"priority"`
	Status          OrderStatus     `json:"status"`
	ProcessedBy     *string         `json:"processed_by,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
}

// OrderDraft is the checkout input built from a cart snapshot
type OrderDraft struct {
	CustomerName    string
	Type            OrderType
	TableNumber     *int
	DeliveryAddress *string
	Lines           []OrderLine
	Notes           string
}

// Validate checks the draft against the submission rules
func (d *OrderDraft) Validate() error {
	if err := validateCustomerName(d.CustomerName); err != nil {
		return err
	}
	if _, err := ParseOrderType(string(d.Type)); err != nil {
		return err
	}
	if err := validateConditionalFields(d.Type, d.TableNumber, d.DeliveryAddress); err != nil {
		return err
	}
	return validateLines(d.Lines)
}

// CalculateTotal sums the line subtotals
func (d *OrderDraft) CalculateTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range d.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// CalculatePriority calculates the kitchen priority based on the total amount
func CalculatePriority(total decimal.Decimal) int {
	if total.GreaterThan(highPriorityThreshold) {
		return 10
	}
	if total.GreaterThanOrEqual(mediumPriorityThreshold) {
		return 5
	}
	return 1
}

// GenerateOrderNumber generates a unique order number in format ORD_YYYYMMDD_NNN
func GenerateOrderNumber(date time.Time, sequence int) string {
	return fmt.Sprintf("ORD_%s_%03d", date.Format("20060102"), sequence)
}

// ParseOrderType validates the order type field
func ParseOrderType(raw string) (OrderType, error) {
	switch OrderType(raw) {
	case DineIn, Takeout, Delivery:
		return OrderType(raw), nil
	default:
		return "", invalid("order_type", "order_type must be one of: dine_in, takeout, delivery")
	}
}

// ParseOrderStatus validates an order status
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case StatusReceived, StatusCooking, StatusReady, StatusCompleted, StatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", invalid("status", "unknown order status %q", raw)
	}
}

func validateCustomerName(name string) error {
	if len(name) == 0 {
		return invalid("customer_name", "customer_name is required")
	}
	if len([]rune(name)) > 100 {
		return invalid("customer_name", "customer_name must not exceed 100 characters")
	}
	if !validNamePattern.MatchString(name) {
		return invalid("customer_name", "customer_name contains invalid characters")
	}
	return nil
}

func validateConditionalFields(orderType OrderType, tableNumber *int, deliveryAddress *string) error {
	switch orderType {
	case DineIn:
		if tableNumber == nil {
			return invalid("table_number", "table_number is required for dine_in orders")
		}
		if *tableNumber < 1 || *tableNumber > 100 {
			return invalid("table_number", "table_number must be between 1 and 100")
		}
		if deliveryAddress != nil {
			return invalid("delivery_address", "delivery_address must not be present for dine_in orders")
		}
	case Delivery:
		if deliveryAddress == nil || *deliveryAddress == "" {
			return invalid("delivery_address", "delivery_address is required for delivery orders")
		}
		if len(*deliveryAddress) < 10 {
			return invalid("delivery_address", "delivery_address must be at least 10 characters")
		}
		if tableNumber != nil {
			return invalid("table_number", "table_number must not be present for delivery orders")
		}
	case Takeout:
		if tableNumber != nil {
			return invalid("table_number", "table_number must not be present for takeout orders")
		}
		if deliveryAddress != nil {
			return invalid("delivery_address", "delivery_address must not be present for takeout orders")
		}
	}
	return nil
}

func validateLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return invalid("lines", "order must contain at least one dish")
	}
	if len(lines) > maxOrderLines {
		return invalid("lines", "order cannot contain more than %d dishes", maxOrderLines)
	}
	for i, line := range lines {
		prefix := fmt.Sprintf("lines[%d]", i)
		if line.Name == "" {
			return invalid(prefix+".name", "%s.name is required", prefix)
		}
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return invalid(prefix+".quantity", "%s.quantity must be between 1 and %d", prefix, MaxLineQuantity)
		}
		if line.UnitPrice.IsNegative() {
			return invalid(prefix+".unit_price", "%s.unit_price must not be negative", prefix)
		}
	}
	return nil
}

// OrderStatusHistory represents an entry in the order status log
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"timestamp"`
	Notes     *string     `json:"notes,omitempty"`
}

// OrderTrackingResponse represents the response for order tracking
type OrderTrackingResponse struct {
	OrderNumber         string     `json:"order_number"`
	CurrentStatus       string     `json:"current_status"`
	UpdatedAt           time.Time  `json:"updated_at"`
	EstimatedCompletion *time.Time `json:"estimated_completion,omitempty"`
	ProcessedBy         *string    `json:"processed_by,omitempty"`
}
