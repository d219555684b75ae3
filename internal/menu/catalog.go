package menu

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"restaurant-ordering/internal/models"
)

// Catalog is the read-only list of dishes loaded at startup
type Catalog struct {
	dishes []models.Dish
	byID   map[int]int
}

// NewCatalog builds a catalog from dishes. Dish ids must be unique.
func NewCatalog(dishes []models.Dish) (*Catalog, error) {
	c := &Catalog{
		dishes: make([]models.Dish, len(dishes)),
		byID:   make(map[int]int, len(dishes)),
	}
	copy(c.dishes, dishes)
	for i, d := range c.dishes {
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate dish id %d", d.ID)
		}
		if d.Price.IsNegative() {
			return nil, fmt.Errorf("dish %d has a negative price", d.ID)
		}
		c.byID[d.ID] = i
	}
	return c, nil
}

// Dishes returns every dish in catalog order
func (c *Catalog) Dishes() []models.Dish {
	out := make([]models.Dish, len(c.dishes))
	copy(out, c.dishes)
	return out
}

// Lookup returns the dish with the given id
func (c *Catalog) Lookup(id int) (models.Dish, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Dish{}, false
	}
	return c.dishes[i], true
}

// Categories returns the distinct categories, sorted
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.dishes {
		if _, ok := seen[d.Category]; ok {
			continue
		}
		seen[d.Category] = struct{}{}
		out = append(out, d.Category)
	}
	sort.Strings(out)
	return out
}

// Search applies Filter to the whole catalog
func (c *Catalog) Search(category, query string) []models.Dish {
	return Filter(c.dishes, category, query)
}

func dish(id int, name, description, price, category string, available bool) models.Dish {
	return models.Dish{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       decimal.RequireFromString(price),
		Category:    category,
		Image:       fmt.Sprintf("/images/dishes/%d.jpg", id),
		Available:   available,
	}
}

// Seed returns the house menu
func Seed() []models.Dish {
	return []models.Dish{
		dish(1, "Ceviche de pescado", "Pescado fresco marinado en limón con cebolla morada y cilantro", "130.00", models.CategoryStarter, true),
		dish(2, "Guacamole", "Aguacate machacado con totopos de maíz", "85.00", models.CategoryStarter, true),
		dish(3, "Sopa de tortilla", "Caldo de jitomate con tiras de tortilla, aguacate y queso", "75.00", models.CategoryStarter, false),
		dish(4, "Tacos al pastor", "Tres tacos de cerdo adobado con piña", "95.00", models.CategoryMain, true),
		dish(5, "Enchiladas verdes", "Tortillas rellenas de pollo bañadas en salsa verde", "120.00", models.CategoryMain, true),
		dish(6, "Mole poblano", "Pechuga de pollo en mole con arroz", "165.00", models.CategoryMain, true),
		dish(7, "Pescado a la talla", "Filete de huachinango asado con adobo rojo", "210.00", models.CategoryMain, false),
		dish(8, "Flan napolitano", "Flan casero con caramelo", "60.00", models.CategoryDessert, true),
		dish(9, "Churros", "Churros con azúcar y canela, salsa de chocolate", "55.00", models.CategoryDessert, true),
		dish(10, "Agua de horchata", "Bebida de arroz con canela", "35.00", models.CategoryDrink, true),
		dish(11, "Limonada natural", "Limonada preparada al momento", "30.00", models.CategoryDrink, true),
		dish(12, "Café de olla", "Café con piloncillo y canela", "40.00", models.CategoryDrink, false),
		dish(13, "Jamaica", "Agua fresca de flor de jamaica", "35.00", models.CategoryDrink, true),
	}
}
