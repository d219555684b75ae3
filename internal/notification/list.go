// Package notification keeps the staff notification feed and turns kitchen
// status updates into feed entries.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Notification is one entry of the staff feed
type Notification struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
	OrderNumber string    `json:"order_number,omitempty"`
}

// List is an ordered, concurrency-safe notification feed. Entries can only be
// appended, marked read in bulk, or cleared in bulk.
type List struct {
	mu     sync.Mutex
	items  []Notification
	limit  int
	subs   map[int]func(unread int)
	nextID int
	now    func() time.Time
}

// NewList creates a feed. Past limit entries the oldest read ones are dropped;
// unread entries are always kept. limit <= 0 keeps everything.
func NewList(limit int) *List {
	return &List{
		limit: limit,
		subs:  make(map[int]func(int)),
		now:   time.Now,
	}
}

// Append adds n at the end of the feed. Missing id and timestamp are filled in.
func (l *List) Append(n Notification) Notification {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	l.mu.Lock()
	if n.Timestamp.IsZero() {
		n.Timestamp = l.now().UTC()
	}
	l.items = append(l.items, n)
	l.trimLocked()
	l.mu.Unlock()

	l.notify()
	return n
}

// MarkAllRead flags every entry as read
func (l *List) MarkAllRead() {
	l.mu.Lock()
	changed := false
	for i := range l.items {
		if !l.items[i].Read {
			l.items[i].Read = true
			changed = true
		}
	}
	l.mu.Unlock()

	if changed {
		l.notify()
	}
}

// Clear drops every entry
func (l *List) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
	l.notify()
}

// UnreadCount returns the number of entries not yet read
func (l *List) UnreadCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unreadLocked()
}

// Items returns a copy of the feed in arrival order
func (l *List) Items() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

// Subscribe registers fn to receive the unread count after every change
func (l *List) Subscribe(fn func(unread int)) (unsubscribe func()) {
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

func (l *List) notify() {
	l.mu.Lock()
	unread := l.unreadLocked()
	fns := make([]func(int), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(unread)
	}
}

// trimLocked drops the oldest read entries while the feed is over its limit
func (l *List) trimLocked() {
	excess := len(l.items) - l.limit
	if l.limit <= 0 || excess <= 0 {
		return
	}
	kept := l.items[:0]
	for _, it := range l.items {
		if excess > 0 && it.Read {
			excess--
			continue
		}
		kept = append(kept, it)
	}
	l.items = kept
}

func (l *List) unreadLocked() int {
	n := 0
	for _, item := range l.items {
		if !item.Read {
			n++
		}
	}
	return n
}
