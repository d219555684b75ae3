package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/models"
)

const changedBy = "order-service"

// Repository persists submitted orders and invoices
type Repository interface {
	NextSequence(ctx context.Context, day time.Time) (int, error)
	CreateOrder(ctx context.Context, order *models.OrderRecord, changedBy string) error
	GetOrder(ctx context.Context, number string) (*models.OrderRecord, error)
	SaveInvoice(ctx context.Context, inv *models.Invoice) error
}

// KitchenPublisher hands a ticket to the kitchen
type KitchenPublisher interface {
	PublishOrder(ctx context.Context, msg *models.OrderMessage) error
}

// Ledger records submitted orders for the order views
type Ledger interface {
	Append(ctx context.Context, order models.OrderRecord) error
}

// Tables is the dining room registry
type Tables interface {
	Get(number int) (models.Table, error)
	Occupy(number int) error
}

// Catalog resolves current dish data at checkout
type Catalog interface {
	Lookup(id int) (models.Dish, bool)
}

// CheckoutRequest carries the fields that are not part of the cart
type CheckoutRequest struct {
	CustomerName    string  `json:"customer_name"`
	OrderType       string  `json:"order_type,omitempty"`
	DeliveryAddress *string `json:"delivery_address,omitempty"`
}

// Service turns carts into submitted orders
type Service struct {
	repo      Repository
	publisher KitchenPublisher
	ledger    Ledger
	tables    Tables
	catalog   Catalog
	logger    *logger.Logger
	now       func() time.Time
}

// NewService creates a new order service
func NewService(repo Repository, publisher KitchenPublisher, ledger Ledger, tables Tables, catalog Catalog, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		ledger:    ledger,
		tables:    tables,
		catalog:   catalog,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Checkout validates the cart, stores the order, sends it to the kitchen and
// removes the ordered lines from the cart. Items added while the order was
// being placed stay in the cart. Failures after the order is stored are
// logged only.
func (s *Service) Checkout(ctx context.Context, c *cart.Cart, req CheckoutRequest, requestID string) (*models.OrderRecord, error) {
	snap := c.Snapshot()

	orderType := models.OrderType(req.OrderType)
	if orderType == "" {
		orderType = models.Takeout
		if snap.SelectedTable != nil {
			orderType = models.DineIn
		}
	}

	lines, err := s.priceLines(snap)
	if err != nil {
		return nil, err
	}

	draft := models.OrderDraft{
		CustomerName:    req.CustomerName,
		Type:            orderType,
		TableNumber:     snap.SelectedTable,
		DeliveryAddress: req.DeliveryAddress,
		Lines:           lines,
		Notes:           snap.Notes,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if draft.Type == models.DineIn {
		if err := s.checkTable(*draft.TableNumber); err != nil {
			return nil, err
		}
	}

	now := s.now()
	seq, err := s.repo.NextSequence(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order number: %w", err)
	}

	total := draft.CalculateTotal()
	order := &models.OrderRecord{
		ID:              uuid.NewString(),
		Number:          models.GenerateOrderNumber(now, seq),
		Type:            draft.Type,
		CustomerName:    draft.CustomerName,
		TableNumber:     draft.TableNumber,
		DeliveryAddress: draft.DeliveryAddress,
		Lines:           draft.Lines,
		Notes:           draft.Notes,
		Total:           total,
		Priority:        models.CalculatePriority(total),
		Status:          models.StatusReceived,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.CreateOrder(ctx, order, changedBy); err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	fields := map[string]interface{}{
		"order_number": order.Number,
		"order_type":   order.Type,
		"total":        order.Total.StringFixed(2),
		"priority":     order.Priority,
	}
	s.logger.Info("order_submitted", "Order submitted", requestID, fields)

	if err := s.ledger.Append(ctx, *order); err != nil {
		s.logger.Error("ledger_append_failed", "Failed to record order in ledger", requestID, err, fields)
	}
	if err := s.publisher.PublishOrder(ctx, models.NewOrderMessage(order)); err != nil {
		s.logger.Error("kitchen_publish_failed", "Failed to send order to kitchen", requestID, err, fields)
	}
	if order.Type == models.DineIn {
		if err := s.tables.Occupy(*order.TableNumber); err != nil {
			s.logger.Error("table_update_failed", "Failed to mark table occupied", requestID, err, fields)
		}
	}

	c.Subtract(snap)
	return order, nil
}

// priceLines snapshots current catalog data for each cart line. Dishes that
// were removed or are no longer available reject the checkout.
func (s *Service) priceLines(snap cart.Snapshot) ([]models.OrderLine, error) {
	lines := make([]models.OrderLine, 0, len(snap.Lines))
	for i, l := range snap.Lines {
		dish, ok := s.catalog.Lookup(l.Dish.ID)
		if !ok || !dish.Available {
			return nil, &models.ValidationError{
				Field:   fmt.Sprintf("lines[%d]", i),
				Message: fmt.Sprintf("%s is not available", l.Dish.Name),
			}
		}
		lines = append(lines, models.OrderLine{
			DishID:    dish.ID,
			Name:      dish.Name,
			Quantity:  l.Quantity,
			UnitPrice: dish.Price,
		})
	}
	return lines, nil
}

func (s *Service) checkTable(number int) error {
	table, err := s.tables.Get(number)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &models.ValidationError{Field: "table_number", Message: fmt.Sprintf("table %d does not exist", number)}
		}
		return err
	}
	if table.Status == models.TableMaintenance {
		return &models.ValidationError{Field: "table_number", Message: fmt.Sprintf("table %d is under maintenance", number)}
	}
	return nil
}

// CreateInvoice issues the invoice for an order. A payment method marks it paid.
func (s *Service) CreateInvoice(ctx context.Context, orderNumber, paymentMethod, requestID string) (*models.Invoice, error) {
	method, err := models.ParsePaymentMethod(paymentMethod)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &models.Invoice{
		ID:            uuid.NewString(),
		OrderNumber:   order.Number,
		CustomerName:  order.CustomerName,
		TableNumber:   order.TableNumber,
		Lines:         order.Lines,
		Total:         order.Total,
		PaymentMethod: method,
		PaymentStatus: models.PaymentPending,
		CreatedAt:     now,
	}
	if method != "" {
		inv.PaymentStatus = models.PaymentPaid
		inv.PaymentDate = &now
	}

	if err := s.repo.SaveInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to save invoice: %w", err)
	}

	s.logger.Info("invoice_created", "Invoice created", requestID, map[string]interface{}{
		"order_number":   inv.OrderNumber,
		"payment_status": inv.PaymentStatus,
		"total":          inv.Total.StringFixed(2),
	})
	return inv, nil
}
