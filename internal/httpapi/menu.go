package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"restaurant-ordering/internal/models"
	"restaurant-ordering/internal/navigation"
)

// navigation handles GET /navigation/{role}
func (s *Server) navigation(w http.ResponseWriter, r *http.Request) {
	role, err := navigation.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		s.writeErrorResponse(w, r, http.StatusNotFound, err.Error(), nil)
		return
	}
	s.writeJSON(w, r, http.StatusOK, navigation.For(role, s.notifications.UnreadCount()))
}

// listMenu handles GET /menu?category=&q=
func (s *Server) listMenu(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	query := r.URL.Query().Get("q")
	if category == "" {
		category = models.CategoryAll
	}

	dishes := s.catalog.Search(category, query)
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"category": category,
		"query":    query,
		"count":    len(dishes),
		"dishes":   newDishViews(dishes),
	})
}

func (s *Server) menuCategories(w http.ResponseWriter, r *http.Request) {
	categories := append([]string{models.CategoryAll}, s.catalog.Categories()...)
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{"categories": categories})
}

func (s *Server) getDish(w http.ResponseWriter, r *http.Request) {
	id, ok := s.intParam(w, r, "id")
	if !ok {
		return
	}
	dish, found := s.catalog.Lookup(id)
	if !found {
		s.writeErrorResponse(w, r, http.StatusNotFound, "dish not found", nil)
		return
	}
	s.writeJSON(w, r, http.StatusOK, newDishView(dish))
}
