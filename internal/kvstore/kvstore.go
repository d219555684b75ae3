// Package kvstore is the string key-value store that backs the order ledger
// and the cart mirror.
package kvstore

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by Get when a key holds no value
var ErrNotFound = errors.New("kvstore: key not found")

// ErrConflict is returned by Update when concurrent writers kept winning
var ErrConflict = errors.New("kvstore: too many concurrent updates")

// UpdateFunc receives the current values of the watched keys (absent keys are
// missing from the map) and returns the values to write. It may run more than
// once when a concurrent writer wins the race.
type UpdateFunc func(current map[string]string) (map[string]string, error)

// Store is a string key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// SetWithTTL writes value and lets it expire after ttl. ttl <= 0 keeps it forever.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// Update reads keys, applies fn and writes its result atomically with
	// respect to every other writer of the same keys.
	Update(ctx context.Context, keys []string, fn UpdateFunc) error
	Delete(ctx context.Context, key string) error
}

type entry struct {
	value     string
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is an in-process Store used when Redis is not configured
type Memory struct {
	mu     sync.Mutex
	data   map[string]entry
	now    func() time.Time
	writes int
}

// expired keys nobody reads again are purged every purgeEvery expiring writes
const purgeEvery = 256

func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.getLocked(key)
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *Memory) Set(ctx context.Context, key, value string) error {
	return m.SetWithTTL(ctx, key, value, 0)
}

func (m *Memory) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	e := entry{value: value}
	m.mu.Lock()
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
		m.writes++
		if m.writes%purgeEvery == 0 {
			m.purgeLocked()
		}
	}
	m.data[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Update(_ context.Context, keys []string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.getLocked(k); ok {
			current[k] = v
		}
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	for k, v := range next {
		m.data[k] = entry{value: v}
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live keys
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	now := m.now()
	for _, e := range m.data {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func (m *Memory) purgeLocked() {
	now := m.now()
	for k, e := range m.data {
		if e.expired(now) {
			delete(m.data, k)
		}
	}
}

func (m *Memory) getLocked(key string) (string, bool) {
	e, ok := m.data[key]
	if !ok {
		return "", false
	}
	if e.expired(m.now()) {
		delete(m.data, key)
		return "", false
	}
	return e.value, true
}
