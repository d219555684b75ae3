// Package db is the PostgreSQL adapter for orders, kitchen stations and invoices.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"restaurant-ordering/internal/database"
	"restaurant-ordering/internal/models"
)

// Repository implements the order, station and invoice stores on PostgreSQL
type Repository struct {
	db *database.DB
}

func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// NextSequence returns the next order sequence number for day, starting at 1
func (r *Repository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	var seq int
	date := day.UTC().Format("2006-01-02")
	if err := r.db.QueryRow(ctx, database.NextOrderSequenceSQL, date).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next order sequence: %w", err)
	}
	return seq, nil
}

// CreateOrder stores the order, its lines and the initial status log entry in one transaction
func (r *Repository) CreateOrder(ctx context.Context, order *models.OrderRecord, changedBy string) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, database.InsertOrderSQL,
			order.ID, order.Number, order.CustomerName, string(order.Type), order.TableNumber,
			order.DeliveryAddress, order.Notes, order.Total.StringFixed(2), order.Priority,
			string(order.Status), order.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i, line := range order.Lines {
			_, err := tx.Exec(ctx, database.InsertOrderLineSQL,
				order.ID, i, line.DishID, line.Name, line.Quantity, line.UnitPrice.StringFixed(2))
			if err != nil {
				return fmt.Errorf("insert order line %d: %w", i, err)
			}
		}

		note := "order submitted"
		if _, err := tx.Exec(ctx, database.InsertOrderStatusLogSQL,
			order.ID, string(order.Status), changedBy, order.CreatedAt, &note); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		return nil
	})
}

// GetOrder loads an order with its lines
func (r *Repository) GetOrder(ctx context.Context, number string) (*models.OrderRecord, error) {
	var (
		o     models.OrderRecord
		typ   string
		stat  string
		total string
	)
	err := r.db.QueryRow(ctx, database.GetOrderByNumberSQL, number).Scan(
		&o.ID, &o.Number, &o.CustomerName, &typ, &o.TableNumber, &o.DeliveryAddress, &o.Notes,
		&total, &o.Priority, &stat, &o.ProcessedBy, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", number, models.ErrNotFound)
		}
		return nil, fmt.Errorf("query order: %w", err)
	}
	o.Type = models.OrderType(typ)
	o.Status = models.OrderStatus(stat)
	if o.Total, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse order total: %w", err)
	}

	rows, err := r.db.Query(ctx, database.GetOrderLinesSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line  models.OrderLine
			price string
		)
		if err := rows.Scan(&line.DishID, &line.Name, &line.Quantity, &price); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if line.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order lines: %w", err)
	}
	return &o, nil
}

// UpdateOrderStatus changes the status and appends a status log entry
func (r *Repository) UpdateOrderStatus(ctx context.Context, number string, status models.OrderStatus, changedBy, note string, at time.Time) error {
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		var by *string
		if changedBy != "" {
			by = &changedBy
		}

		var orderID string
		err := tx.QueryRow(ctx, database.UpdateOrderStatusSQL, string(status), by, at, number).Scan(&orderID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("order %s: %w", number, models.ErrNotFound)
			}
			return fmt.Errorf("update order status: %w", err)
		}

		var notes *string
		if note != "" {
			notes = &note
		}
		if _, err := tx.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, string(status), changedBy, at, notes); err != nil {
			return fmt.Errorf("insert status log: %w", err)
		}
		return nil
	})
}

// OrderHistory returns the status log oldest first
func (r *Repository) OrderHistory(ctx context.Context, number string) ([]models.OrderStatusHistory, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE number = $1)", number).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check order existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("order %s: %w", number, models.ErrNotFound)
	}

	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, number)
	if err != nil {
		return nil, fmt.Errorf("query order history: %w", err)
	}
	defer rows.Close()

	var history []models.OrderStatusHistory
	for rows.Next() {
		var (
			entry  models.OrderStatusHistory
			status string
		)
		if err := rows.Scan(&status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, fmt.Errorf("scan order history: %w", err)
		}
		entry.Status = models.OrderStatus(status)
		history = append(history, entry)
	}
	return history, rows.Err()
}

// SaveInvoice inserts the invoice, replacing the payment fields of an
// existing invoice for the same order.
func (r *Repository) SaveInvoice(ctx context.Context, inv *models.Invoice) error {
	err := r.db.QueryRow(ctx, database.InsertInvoiceSQL,
		inv.ID, inv.OrderNumber, inv.Total.StringFixed(2), string(inv.PaymentMethod),
		string(inv.PaymentStatus), inv.PaymentDate, inv.CreatedAt,
	).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

// RegisterStation marks a station online, creating it on first start
func (r *Repository) RegisterStation(ctx context.Context, name string, orderTypes []models.OrderType) error {
	if _, err := r.db.Exec(ctx, database.UpsertStationSQL, name, joinOrderTypes(orderTypes)); err != nil {
		return fmt.Errorf("register station: %w", err)
	}
	return nil
}

func (r *Repository) SetStationStatus(ctx context.Context, name string, status models.StationStatus) error {
	if _, err := r.db.Exec(ctx, database.UpdateStationStatusSQL, string(status), name); err != nil {
		return fmt.Errorf("update station status: %w", err)
	}
	return nil
}

// StationHeartbeat refreshes last_seen and adds processed to the order counter
func (r *Repository) StationHeartbeat(ctx context.Context, name string, processed int) error {
	if _, err := r.db.Exec(ctx, database.StationHeartbeatSQL, processed, name); err != nil {
		return fmt.Errorf("station heartbeat: %w", err)
	}
	return nil
}

func (r *Repository) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := r.db.Query(ctx, database.GetAllStationsSQL)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var (
			s      models.Station
			types  string
			status string
		)
		if err := rows.Scan(&s.Name, &types, &status, &s.OrdersProcessed, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		s.OrderTypes = models.ParseOrderTypes(types)
		s.Status = models.StationStatus(status)
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

func joinOrderTypes(types []models.OrderType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}
