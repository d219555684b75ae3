package menu

import (
	"strings"

	"restaurant-ordering/internal/models"
)

// Filter returns the available dishes matching category and query, in input
// order. An empty category or "all" matches every category. The query is a
// case-insensitive substring match against the name or the description,
// taken as typed.
func Filter(dishes []models.Dish, category, query string) []models.Dish {
	category = strings.TrimSpace(category)
	needle := strings.ToLower(query)

	out := make([]models.Dish, 0, len(dishes))
	for _, d := range dishes {
		if !d.Available {
			continue
		}
		if category != "" && category != models.CategoryAll && d.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Name), needle) &&
			!strings.Contains(strings.ToLower(d.Description), needle) {
			continue
		}
		out = append(out, d)
	}
	return out
}
