package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"restaurant-ordering/internal/kvstore"
	"restaurant-ordering/internal/logger"
)

const (
	mirrorTimeout  = 3 * time.Second
	DefaultIdleTTL = 30 * time.Minute
)

// MirrorKey is the key-value store key holding a session's cart
func MirrorKey(sessionID string) string {
	return "cart:" + sessionID
}

type session struct {
	cart     *Cart
	lastUsed time.Time
}

// Registry owns one cart per session and mirrors every change to a
// key-value store so a session sees the same cart after a restart. Carts idle
// for longer than the idle TTL are dropped from memory, and their mirror
// expires after the same TTL.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	store    kvstore.Store
	idleTTL  time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewRegistry creates a registry. idleTTL <= 0 selects DefaultIdleTTL.
func NewRegistry(store kvstore.Store, log *logger.Logger, idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = DefaultIdleTTL
	}
	return &Registry{
		sessions: make(map[string]*session),
		store:    store,
		idleTTL:  idleTTL,
		log:      log,
		now:      time.Now,
	}
}

// Get returns the cart for sessionID, creating it (restored from the mirror
// when one exists) on first use. Use it for requests that change the cart.
func (r *Registry) Get(ctx context.Context, sessionID string) *Cart {
	if c, ok := r.live(sessionID); ok {
		return c
	}

	fresh := New()
	if snap, found := r.load(ctx, sessionID); found {
		fresh.Restore(snap)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[sessionID]; ok {
		s.lastUsed = r.now()
		return s.cart
	}
	r.sessions[sessionID] = &session{cart: fresh, lastUsed: r.now()}
	fresh.Subscribe(r.mirror(sessionID, fresh))
	return fresh
}

// View returns the session's cart for reading. A session that is not live is
// read from the mirror without being registered, so lookups of unknown
// sessions allocate nothing that outlives the request.
func (r *Registry) View(ctx context.Context, sessionID string) *Cart {
	if c, ok := r.live(sessionID); ok {
		return c
	}
	c := New()
	if snap, found := r.load(ctx, sessionID); found {
		c.Restore(snap)
	}
	return c
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops carts idle for longer than the idle TTL and returns how many it
// dropped. Their state stays readable from the mirror until it expires.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.now().Add(-r.idleTTL)

	r.mu.Lock()
	var idle map[string]*Cart
	for id, s := range r.sessions {
		if s.lastUsed.Before(cutoff) {
			if idle == nil {
				idle = make(map[string]*Cart)
			}
			idle[id] = s.cart
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for id, c := range idle {
		r.write(ctx, id, c)
	}
	if len(idle) > 0 {
		r.log.Debug("cart_sessions_evicted", "Dropped idle cart sessions", "", map[string]interface{}{
			"evicted": len(idle),
			"live":    r.Len(),
		})
	}
	return len(idle)
}

// Run sweeps idle sessions until ctx is cancelled
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.idleTTL / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) live(sessionID string) (*Cart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.lastUsed = r.now()
	return s.cart, true
}

func (r *Registry) load(ctx context.Context, sessionID string) (Snapshot, bool) {
	raw, err := r.store.Get(ctx, MirrorKey(sessionID))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			r.log.Warn("cart_mirror_read_failed", "Failed to read cart mirror", "", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		r.log.Warn("cart_mirror_corrupted", "Discarding unreadable cart mirror", "", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return Snapshot{}, false
	}
	return snap, true
}

// mirror writes the cart's current state rather than the notified snapshot so
// that racing notifications cannot leave an older state in the store.
func (r *Registry) mirror(sessionID string, c *Cart) func(Snapshot) {
	var mu sync.Mutex
	return func(Snapshot) {
		mu.Lock()
		defer mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		r.write(ctx, sessionID, c)
	}
}

// write stores the cart with the idle TTL, or deletes the key of an empty cart
func (r *Registry) write(ctx context.Context, sessionID string, c *Cart) {
	snap := c.Snapshot()
	key := MirrorKey(sessionID)

	var err error
	if len(snap.Lines) == 0 && snap.Notes == "" && snap.SelectedTable == nil {
		err = r.store.Delete(ctx, key)
	} else {
		var raw []byte
		raw, err = json.Marshal(snap)
		if err == nil {
			err = r.store.SetWithTTL(ctx, key, string(raw), r.idleTTL)
		}
	}
	if err != nil {
		r.log.Error("cart_mirror_write_failed", "Failed to mirror cart", "", err, map[string]interface{}{
			"session_id": sessionID,
		})
	}
}
