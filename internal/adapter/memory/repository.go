// Package memory is the in-process adapter used when PostgreSQL is not configured
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"restaurant-ordering/internal/models"
)

// Repository implements the order, station and invoice stores in memory
type Repository struct {
	mu        sync.RWMutex
	sequences map[string]int
	orders    map[string]*models.OrderRecord
	history   map[string][]models.OrderStatusHistory
	invoices  map[string]models.Invoice
	stations  map[string]*models.Station
	order     []string
}

func NewRepository() *Repository {
	return &Repository{
		sequences: make(map[string]int),
		orders:    make(map[string]*models.OrderRecord),
		history:   make(map[string][]models.OrderStatusHistory),
		invoices:  make(map[string]models.Invoice),
		stations:  make(map[string]*models.Station),
	}
}

func (r *Repository) NextSequence(_ context.Context, day time.Time) (int, error) {
	key := day.UTC().Format("2006-01-02")
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequences[key]++
	return r.sequences[key], nil
}

func (r *Repository) CreateOrder(_ context.Context, order *models.OrderRecord, changedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.orders[order.Number]; dup {
		return fmt.Errorf("order %s already exists", order.Number)
	}
	stored := cloneOrder(order)
	r.orders[order.Number] = stored
	note := "order submitted"
	r.history[order.Number] = []models.OrderStatusHistory{{
		Status:    order.Status,
		ChangedBy: changedBy,
		ChangedAt: order.CreatedAt,
		Notes:     &note,
	}}
	return nil
}

func (r *Repository) GetOrder(_ context.Context, number string) (*models.OrderRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[number]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", number, models.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (r *Repository) UpdateOrderStatus(_ context.Context, number string, status models.OrderStatus, changedBy, note string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[number]
	if !ok {
		return fmt.Errorf("order %s: %w", number, models.ErrNotFound)
	}
	o.Status = status
	o.UpdatedAt = at
	if changedBy != "" {
		by := changedBy
		o.ProcessedBy = &by
	}
	if status == models.StatusReady || status == models.StatusCompleted {
		done := at
		o.CompletedAt = &done
	}

	entry := models.OrderStatusHistory{Status: status, ChangedBy: changedBy, ChangedAt: at}
	if note != "" {
		n := note
		entry.Notes = &n
	}
	r.history[number] = append(r.history[number], entry)
	return nil
}

func (r *Repository) OrderHistory(_ context.Context, number string) ([]models.OrderStatusHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.history[number]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", number, models.ErrNotFound)
	}
	out := make([]models.OrderStatusHistory, len(h))
	copy(out, h)
	return out, nil
}

func (r *Repository) SaveInvoice(_ context.Context, inv *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.invoices[inv.OrderNumber]; ok {
		inv.ID = existing.ID
		inv.CreatedAt = existing.CreatedAt
	}
	r.invoices[inv.OrderNumber] = *inv
	return nil
}

func (r *Repository) RegisterStation(_ context.Context, name string, orderTypes []models.OrderType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stations[name]
	if !ok {
		s = &models.Station{Name: name}
		r.stations[name] = s
		r.order = append(r.order, name)
	}
	s.OrderTypes = append([]models.OrderType(nil), orderTypes...)
	s.Status = models.StationOnline
	s.LastSeen = time.Now().UTC()
	return nil
}

func (r *Repository) SetStationStatus(_ context.Context, name string, status models.StationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stations[name]; ok {
		s.Status = status
		s.LastSeen = time.Now().UTC()
	}
	return nil
}

func (r *Repository) StationHeartbeat(_ context.Context, name string, processed int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stations[name]; ok {
		s.LastSeen = time.Now().UTC()
		s.OrdersProcessed += processed
	}
	return nil
}

// ListStations returns stations in registration order
func (r *Repository) ListStations(_ context.Context) ([]models.Station, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Station, 0, len(r.order))
	for _, name := range r.order {
		s := *r.stations[name]
		s.OrderTypes = append([]models.OrderType(nil), s.OrderTypes...)
		out = append(out, s)
	}
	return out, nil
}

func cloneOrder(o *models.OrderRecord) *models.OrderRecord {
	c := *o
	c.Lines = append([]models.OrderLine(nil), o.Lines...)
	return &c
}
