package tables

import (
	"fmt"
	"sort"
	"sync"

	"restaurant-ordering/internal/models"
)

// Registry tracks the dining room tables
type Registry struct {
	mu     sync.RWMutex
	tables map[int]models.Table
}

// NewRegistry builds a registry. Table numbers must be unique.
func NewRegistry(seed []models.Table) (*Registry, error) {
	r := &Registry{tables: make(map[int]models.Table, len(seed))}
	for _, t := range seed {
		if _, dup := r.tables[t.Number]; dup {
			return nil, fmt.Errorf("duplicate table number %d", t.Number)
		}
		if t.Status == "" {
			t.Status = models.TableFree
		}
		r.tables[t.Number] = t
	}
	return r, nil
}

// List returns the tables ordered by number, optionally filtered by status
func (r *Registry) List(status models.TableStatus) []models.Table {
	r.mu.RLock()
	out := make([]models.Table, 0, len(r.tables))
	for _, t := range r.tables {
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, clone(t))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *Registry) Get(number int) (models.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tables[number]
	if !ok {
		return models.Table{}, fmt.Errorf("table %d: %w", number, models.ErrNotFound)
	}
	return clone(t), nil
}

// Update is a partial table change. Nil fields are left untouched; an empty
// AssignedStaff unassigns the table.
type Update struct {
	Status        *models.TableStatus
	AssignedStaff *string
}

func (r *Registry) Update(number int, u Update) (models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tables[number]
	if !ok {
		return models.Table{}, fmt.Errorf("table %d: %w", number, models.ErrNotFound)
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.AssignedStaff != nil {
		if *u.AssignedStaff == "" {
			t.AssignedStaff = nil
		} else {
			staff := *u.AssignedStaff
			t.AssignedStaff = &staff
		}
	}
	r.tables[number] = t
	return clone(t), nil
}

// Occupy marks a table occupied, used when a dine-in order is submitted
func (r *Registry) Occupy(number int) error {
	status := models.TableOccupied
	_, err := r.Update(number, Update{Status: &status})
	return err
}

func clone(t models.Table) models.Table {
	if t.AssignedStaff != nil {
		staff := *t.AssignedStaff
		t.AssignedStaff = &staff
	}
	return t
}

// Seed returns the default dining room layout
func Seed() []models.Table {
	staff := func(s string) *string { return &s }
	return []models.Table{
		{Number: 1, Capacity: 2, Location: "Terraza", Status: models.TableFree},
		{Number: 2, Capacity: 2, Location: "Terraza", Status: models.TableFree},
		{Number: 3, Capacity: 4, Location: "Salón principal", Status: models.TableOccupied, AssignedStaff: staff("Carlos")},
		{Number: 4, Capacity: 4, Location: "Salón principal", Status: models.TableFree, AssignedStaff: staff("María")},
		{Number: 5, Capacity: 6, Location: "Salón principal", Status: models.TableReserved},
		{Number: 6, Capacity: 8, Location: "Salón privado", Status: models.TableFree},
		{Number: 7, Capacity: 4, Location: "Barra", Status: models.TableMaintenance},
	}
}
