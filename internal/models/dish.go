package models

import "github.com/shopspring/decimal"

// CategoryAll is the wildcard category accepted by the menu filter
const CategoryAll = "all"

// Menu categories used by the seed catalog
const (
	CategoryStarter = "entrada"
	CategoryMain    = "plato_fuerte"
	CategoryDessert = "postre"
	CategoryDrink   = "bebida"
)

// Dish represents a menu item. Dishes are immutable once the catalog is loaded.
type Dish struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Available   bool            `json:"available"`
}
