package httpapi

import (
	"time"

	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/models"
)

// Prices leave the API as fixed two-decimal strings

type dishView struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Image       string `json:"image,omitempty"`
	Available   bool   `json:"available"`
}

func newDishView(d models.Dish) dishView {
	return dishView{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price.StringFixed(2),
		Category:    d.Category,
		Image:       d.Image,
		Available:   d.Available,
	}
}

func newDishViews(dishes []models.Dish) []dishView {
	out := make([]dishView, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, newDishView(d))
	}
	return out
}

type cartLineView struct {
	Dish     dishView `json:"dish"`
	Quantity int      `json:"quantity"`
	Subtotal string   `json:"subtotal"`
}

type cartView struct {
	Lines         []cartLineView `json:"lines"`
	Notes         string         `json:"notes"`
	SelectedTable *int           `json:"selected_table"`
	ItemCount     int            `json:"item_count"`
	Total         string         `json:"total"`
}

func newCartView(s cart.Snapshot) cartView {
	lines := make([]cartLineView, 0, len(s.Lines))
	for _, l := range s.Lines {
		lines = append(lines, cartLineView{
			Dish:     newDishView(l.Dish),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().StringFixed(2),
		})
	}
	return cartView{
		Lines:         lines,
		Notes:         s.Notes,
		SelectedTable: s.SelectedTable,
		ItemCount:     s.TotalItemCount(),
		Total:         s.TotalPrice().StringFixed(2),
	}
}

type orderLineView struct {
	DishID    int    `json:"dish_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

func newOrderLineViews(lines []models.OrderLine) []orderLineView {
	out := make([]orderLineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, orderLineView{
			DishID:    l.DishID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			Subtotal:  l.Subtotal().StringFixed(2),
		})
	}
	return out
}

type orderView struct {
	OrderNumber     string             `json:"order_number"`
	OrderType       models.OrderType   `json:"order_type"`
	CustomerName    string             `json:"customer_name"`
	TableNumber     *int               `json:"table_number,omitempty"`
	DeliveryAddress *string            `json:"delivery_address,omitempty"`
	Lines           []orderLineView    `json:"lines"`
	Notes           string             `json:"notes,omitempty"`
	Total           string             `json:"total_amount"`
	Priority        int                `json:"priority"`
	Status          models.OrderStatus `json:"status"`
	ProcessedBy     *string            `json:"processed_by,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func newOrderView(o models.OrderRecord) orderView {
	return orderView{
		OrderNumber:     o.Number,
		OrderType:       o.Type,
		CustomerName:    o.CustomerName,
		TableNumber:     o.TableNumber,
		DeliveryAddress: o.DeliveryAddress,
		Lines:           newOrderLineViews(o.Lines),
		Notes:           o.Notes,
		Total:           o.Total.StringFixed(2),
		Priority:        o.Priority,
		Status:          o.Status,
		ProcessedBy:     o.ProcessedBy,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type invoiceView struct {
	ID            string               `json:"invoice_id"`
	OrderNumber   string               `json:"order_number"`
	CustomerName  string               `json:"customer_name"`
	TableNumber   *int                 `json:"table_number,omitempty"`
	Lines         []orderLineView      `json:"lines"`
	Total         string               `json:"total"`
	PaymentMethod models.PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	PaymentDate   *time.Time           `json:"payment_date,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

func newInvoiceView(inv *models.Invoice) invoiceView {
	return invoiceView{
		ID:            inv.ID,
		OrderNumber:   inv.OrderNumber,
		CustomerName:  inv.CustomerName,
		TableNumber:   inv.TableNumber,
		Lines:         newOrderLineViews(inv.Lines),
		Total:         inv.Total.StringFixed(2),
		PaymentMethod: inv.PaymentMethod,
		PaymentStatus: inv.PaymentStatus,
		PaymentDate:   inv.PaymentDate,
		CreatedAt:     inv.CreatedAt,
	}
}
