package menu

import (
	"testing"

	"restaurant-ordering/internal/models"
)

func ids(dishes []models.Dish) []int {
	out := make([]int, len(dishes))
	for i, d := range dishes {
		out[i] = d.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilter(t *testing.T) {
	dishes := Seed()

	tests := []struct {
		name     string
		category string
		query    string
		want     []int
	}{
		{"drinks only available in order", "bebida", "", []int{10, 11, 13}},
		{"all categories", "all", "", []int{1, 2, 4, 5, 6, 8, 9, 10, 11, 13}},
		{"empty category is wildcard", "", "", []int{1, 2, 4, 5, 6, 8, 9, 10, 11, 13}},
		{"query matches name case insensitive", "all", "TACOS", []int{4}},
		{"query matches description", "all", "canela", []int{9, 10}},
		{"query spaces are part of the match", "all", " de ", []int{1, 2, 4, 5, 6, 9, 10, 13}},
		{"trailing space is not trimmed", "all", "horchata ", []int{}},
		{"query within category", "bebida", "jamaica", []int{13}},
		{"unavailable dish never matches", "all", "café", []int{}},
		{"unknown category", "sushi", "", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Filter(dishes, tt.category, tt.query))
			if !equalInts(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.category, tt.query, got, tt.want)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	dishes := Seed()
	before := ids(dishes)
	Filter(dishes, "bebida", "a")
	if !equalInts(ids(dishes), before) {
		t.Fatal("input slice was modified")
	}
}

func TestCatalogLookupAndCategories(t *testing.T) {
	c, err := NewCatalog(Seed())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	d, ok := c.Lookup(1)
	if !ok || d.Name != "Ceviche de pescado" {
		t.Fatalf("Lookup(1) = %+v, %v", d, ok)
	}
	if _, ok := c.Lookup(999); ok {
		t.Fatal("Lookup(999) should miss")
	}
	want := []string{"bebida", "entrada", "plato_fuerte", "postre"}
	got := c.Categories()
	if len(got) != len(want) {
		t.Fatalf("Categories() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Categories() = %v, want %v", got, want)
		}
	}
}

func TestNewCatalogRejectsDuplicateIDs(t *testing.T) {
	seed := Seed()
	seed = append(seed, seed[0])
	if _, err := NewCatalog(seed); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
