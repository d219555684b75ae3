package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how an invoice is settled
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentCash PaymentMethod = "CASH"
)

// PaymentStatus tracks whether an invoice has been settled
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
)

// Invoice is issued by the cashier for a submitted order
type Invoice struct {
	ID            string          `json:"invoice_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerName  string          `json:"customer_name"`
	TableNumber   *int            `json:"table_number,omitempty"`
	Lines         []OrderLine     `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentDate   *time.Time      `json:"payment_date,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ParsePaymentMethod validates a payment method. An empty method leaves the
// invoice pending.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentCard, PaymentCash, "":
		return PaymentMethod(raw), nil
	default:
		return "", &ValidationError{Field: "payment_method", Message: "payment_method must be CARD or CASH"}
	}
}
