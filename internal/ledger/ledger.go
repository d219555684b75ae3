// Package ledger keeps the list of submitted orders under two mirrored keys of
// a key-value store. Every write updates both keys and then notifies
// subscribers; reads merge both keys and drop duplicate ids.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"restaurant-ordering/internal/kvstore"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/models"
)

// EventType names a ledger change
type EventType string

const (
	EventAppended      EventType = "appended"
	EventStatusChanged EventType = "status_changed"
)

// Event is published to subscribers after both keys have been written
type Event struct {
	Type  EventType          `json:"type"`
	Order models.OrderRecord `json:"order"`
}

// Ledger is safe for concurrent use, including by several processes sharing
// one store
type Ledger struct {
	store      kvstore.Store
	primaryKey string
	mirrorKey  string
	logger     *logger.Logger

	mu     sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

func New(store kvstore.Store, primaryKey, mirrorKey string, log *logger.Logger) *Ledger {
	return &Ledger{
		store:      store,
		primaryKey: primaryKey,
		mirrorKey:  mirrorKey,
		logger:     log,
		subs:       make(map[int]func(Event)),
	}
}

// Append stores order at the end of the ledger. An order whose id is already
// present replaces the stored copy in place.
func (l *Ledger) Append(ctx context.Context, order models.OrderRecord) error {
	err := l.update(ctx, func(records []models.OrderRecord) ([]models.OrderRecord, error) {
		for i := range records {
			if records[i].ID == order.ID {
				records[i] = order
				return records, nil
			}
		}
		return append(records, order), nil
	})
	if err != nil {
		return err
	}

	l.publish(Event{Type: EventAppended, Order: order})
	return nil
}

// UpdateStatus rewrites the status of the order with the given number.
// Returns models.ErrNotFound when no such order is recorded.
func (l *Ledger) UpdateStatus(ctx context.Context, orderNumber string, status models.OrderStatus, changedBy string, at time.Time) (models.OrderRecord, error) {
	var updated models.OrderRecord
	err := l.update(ctx, func(records []models.OrderRecord) ([]models.OrderRecord, error) {
		for i := range records {
			if records[i].Number != orderNumber {
				continue
			}
			rec := &records[i]
			rec.Status = status
			rec.UpdatedAt = at
			if changedBy != "" {
				by := changedBy
				rec.ProcessedBy = &by
			}
			if status == models.StatusReady || status == models.StatusCompleted {
				done := at
				rec.CompletedAt = &done
			}
			updated = *rec
			return records, nil
		}
		return nil, fmt.Errorf("order %s: %w", orderNumber, models.ErrNotFound)
	})
	if err != nil {
		return models.OrderRecord{}, err
	}

	l.publish(Event{Type: EventStatusChanged, Order: updated})
	return updated, nil
}

// List returns the merged ledger in submission order
func (l *Ledger) List(ctx context.Context) []models.OrderRecord {
	return Merge(l.readKey(ctx, l.primaryKey), l.readKey(ctx, l.mirrorKey))
}

// Get returns the order with the given number
func (l *Ledger) Get(ctx context.Context, orderNumber string) (models.OrderRecord, error) {
	for _, rec := range l.List(ctx) {
		if rec.Number == orderNumber {
			return rec, nil
		}
	}
	return models.OrderRecord{}, fmt.Errorf("order %s: %w", orderNumber, models.ErrNotFound)
}

// Subscribe registers fn for ledger events and returns a function that removes it
func (l *Ledger) Subscribe(fn func(Event)) (unsubscribe func()) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.subs[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

func (l *Ledger) publish(ev Event) {
	l.mu.Lock()
	fns := make([]func(Event), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// update merges both keys, applies fn and writes the result to both keys in
// one store transaction, so writers in other processes cannot interleave.
func (l *Ledger) update(ctx context.Context, fn func([]models.OrderRecord) ([]models.OrderRecord, error)) error {
	keys := []string{l.primaryKey, l.mirrorKey}
	err := l.store.Update(ctx, keys, func(current map[string]string) (map[string]string, error) {
		records, err := fn(Merge(l.decode(l.primaryKey, current[l.primaryKey]), l.decode(l.mirrorKey, current[l.mirrorKey])))
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []models.OrderRecord{}
		}
		raw, err := json.Marshal(records)
		if err != nil {
			return nil, fmt.Errorf("marshal order ledger: %w", err)
		}
		value := string(raw)
		return map[string]string{l.primaryKey: value, l.mirrorKey: value}, nil
	})
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("write order ledger: %w", err)
	}
	return err
}

// readKey degrades every failure to an empty list
func (l *Ledger) readKey(ctx context.Context, key string) []models.OrderRecord {
	raw, err := l.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			l.logger.Warn("ledger_read_failed", "Failed to read order ledger key", "", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return nil
	}
	return l.decode(key, raw)
}

func (l *Ledger) decode(key, raw string) []models.OrderRecord {
	if raw == "" {
		return nil
	}
	var records []models.OrderRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		l.logger.Warn("ledger_parse_failed", "Order ledger key is not a valid order list", "", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return nil
	}
	return records
}

// Merge concatenates lists and keeps the first record seen for each id
func Merge(lists ...[]models.OrderRecord) []models.OrderRecord {
	seen := make(map[string]struct{})
	var out []models.OrderRecord
	for _, list := range lists {
		for _, rec := range list {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}
