// Package cart holds the per-session order being assembled by a diner or a
// waiter. Quantities are always positive, a dish appears on at most one line
// and totals are derived from the lines on every read.
package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	"restaurant-ordering/internal/models"
)

// Line is one dish with its quantity
type Line struct {
	Dish     models.Dish `json:"dish"`
	Quantity int         `json:"quantity"`
}

// Subtotal returns quantity × dish price
func (l Line) Subtotal() decimal.Decimal {
	return l.Dish.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is an immutable copy of a cart's state
type Snapshot struct {
	Lines         []Line `json:"lines"`
	Notes         string `json:"notes"`
	SelectedTable *int   `json:"selected_table,omitempty"`
}

// TotalItemCount is the sum of line quantities
func (s Snapshot) TotalItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// TotalPrice is the sum of quantity × price over all lines
func (s Snapshot) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

// Cart is safe for concurrent use. Subscribers are called after each state
// change, outside the lock, with the resulting snapshot.
type Cart struct {
	mu     sync.Mutex
	lines  []Line
	notes  string
	table  *int
	subs   []subscriber
	nextID int
}

// New returns an empty cart
func New() *Cart {
	return &Cart{}
}

// AddItem adds one unit of dish, merging into an existing line for the same id.
// Availability is not checked here.
func (c *Cart) AddItem(dish models.Dish) {
	c.mutate(func() bool {
		if i := c.indexOf(dish.ID); i >= 0 {
			c.lines[i].Quantity++
			return true
		}
		c.lines = append(c.lines, Line{Dish: dish, Quantity: 1})
		return true
	})
}

// RemoveOneItem decrements the line for dishID, deleting it when the quantity
// would reach zero.
func (c *Cart) RemoveOneItem(dishID int) {
	c.mutate(func() bool {
		i := c.indexOf(dishID)
		if i < 0 {
			return false
		}
		if c.lines[i].Quantity > 1 {
			c.lines[i].Quantity--
			return true
		}
		c.removeAt(i)
		return true
	})
}

// DeleteItem removes the line for dishID if present
func (c *Cart) DeleteItem(dishID int) {
	c.mutate(func() bool {
		i := c.indexOf(dishID)
		if i < 0 {
			return false
		}
		c.removeAt(i)
		return true
	})
}

// SetQuantity overwrites the quantity of an existing line. A quantity <= 0
// deletes the line. Dishes that are not in the cart are ignored.
func (c *Cart) SetQuantity(dishID, quantity int) {
	c.mutate(func() bool {
		i := c.indexOf(dishID)
		if i < 0 {
			return false
		}
		if quantity <= 0 {
			c.removeAt(i)
			return true
		}
		if c.lines[i].Quantity == quantity {
			return false
		}
		c.lines[i].Quantity = quantity
		return true
	})
}

// SetNotes replaces the order notes verbatim
func (c *Cart) SetNotes(text string) {
	c.mutate(func() bool {
		if c.notes == text {
			return false
		}
		c.notes = text
		return true
	})
}

// SelectTable sets the table the order is for. nil clears the selection.
func (c *Cart) SelectTable(number *int) {
	c.mutate(func() bool {
		c.table = copyInt(number)
		return true
	})
}

// Clear empties the lines and notes and drops the selected table
func (c *Cart) Clear() {
	c.mutate(func() bool {
		c.lines = nil
		c.notes = ""
		c.table = nil
		return true
	})
}

// Subtract removes what s ordered: each line in s lowers the matching line by
// its quantity, and lines reaching zero are deleted. Notes and the selected
// table are cleared only when they still equal the ones in s, so changes made
// after s was taken survive.
func (c *Cart) Subtract(s Snapshot) {
	c.mutate(func() bool {
		changed := false
		for _, l := range s.Lines {
			i := c.indexOf(l.Dish.ID)
			if i < 0 || l.Quantity <= 0 {
				continue
			}
			changed = true
			if c.lines[i].Quantity > l.Quantity {
				c.lines[i].Quantity -= l.Quantity
				continue
			}
			c.removeAt(i)
		}
		if c.notes != "" && c.notes == s.Notes {
			c.notes = ""
			changed = true
		}
		if c.table != nil && s.SelectedTable != nil && *c.table == *s.SelectedTable {
			c.table = nil
			changed = true
		}
		return changed
	})
}

// Restore replaces the whole state with s. Lines with a non-positive quantity
// are dropped and duplicate dish ids are merged.
func (c *Cart) Restore(s Snapshot) {
	c.mutate(func() bool {
		c.lines = nil
		for _, l := range s.Lines {
			if l.Quantity <= 0 {
				continue
			}
			if i := c.indexOf(l.Dish.ID); i >= 0 {
				c.lines[i].Quantity += l.Quantity
				continue
			}
			c.lines = append(c.lines, l)
		}
		c.notes = s.Notes
		c.table = copyInt(s.SelectedTable)
		return true
	})
}

func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cart) Lines() []Line {
	return c.Snapshot().Lines
}

func (c *Cart) Notes() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notes
}

func (c *Cart) SelectedTable() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyInt(c.table)
}

func (c *Cart) TotalItemCount() int {
	return c.Snapshot().TotalItemCount()
}

func (c *Cart) TotalPrice() decimal.Decimal {
	return c.Snapshot().TotalPrice()
}

// QuantityOf returns the quantity for dishID, 0 when absent
func (c *Cart) QuantityOf(dishID int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexOf(dishID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Subscribe registers fn for state changes and returns a function that
// removes it.
func (c *Cart) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (c *Cart) mutate(fn func() bool) {
	c.mu.Lock()
	if !fn() {
		c.mu.Unlock()
		return
	}
	snap := c.snapshotLocked()
	subs := make([]subscriber, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
}

func (c *Cart) snapshotLocked() Snapshot {
	lines := make([]Line, len(c.lines))
	copy(lines, c.lines)
	return Snapshot{Lines: lines, Notes: c.notes, SelectedTable: copyInt(c.table)}
}

func (c *Cart) indexOf(dishID int) int {
	for i, l := range c.lines {
		if l.Dish.ID == dishID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
