package httpapi

import (
	"fmt"
	"net/http"

	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/models"
	"restaurant-ordering/internal/services/order"
)

func (s *Server) writeCart(w http.ResponseWriter, r *http.Request, c *cart.Cart) {
	s.writeJSON(w, r, http.StatusOK, newCartView(c.Snapshot()))
}

// getCart handles GET /cart
func (s *Server) getCart(w http.ResponseWriter, r *http.Request) {
	s.writeCart(w, r, cart.FromContext(r.Context()))
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	c := cart.FromContext(r.Context())
	c.Clear()
	s.writeCart(w, r, c)
}

// addCartItem handles POST /cart/items {dish_id}
func (s *Server) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DishID int `json:"dish_id"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	dish, ok := s.catalog.Lookup(req.DishID)
	if !ok {
		s.writeErrorResponse(w, r, http.StatusNotFound, fmt.Sprintf("dish %d not found", req.DishID), nil)
		return
	}

	c := cart.FromContext(r.Context())
	c.AddItem(dish)
	s.writeCart(w, r, c)
}

func (s *Server) decrementCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.intParam(w, r, "id")
	if !ok {
		return
	}
	c := cart.FromContext(r.Context())
	c.RemoveOneItem(id)
	s.writeCart(w, r, c)
}

// setCartItemQuantity handles PUT /cart/items/{id} {quantity}. Zero or less removes the line.
func (s *Server) setCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := s.intParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "quantity is required", map[string]interface{}{"field": "quantity"})
		return
	}
	if *req.Quantity > models.MaxLineQuantity {
		s.writeErrorResponse(w, r, http.StatusBadRequest,
			fmt.Sprintf("quantity must be at most %d", models.MaxLineQuantity), map[string]interface{}{"field": "quantity"})
		return
	}
	c := cart.FromContext(r.Context())
	c.SetQuantity(id, *req.Quantity)
	s.writeCart(w, r, c)
}

func (s *Server) deleteCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := s.intParam(w, r, "id")
	if !ok {
		return
	}
	c := cart.FromContext(r.Context())
	c.DeleteItem(id)
	s.writeCart(w, r, c)
}

func (s *Server) setCartNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	c := cart.FromContext(r.Context())
	c.SetNotes(req.Notes)
	s.writeCart(w, r, c)
}

// selectCartTable handles PUT /cart/table {table_number|null}
func (s *Server) selectCartTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TableNumber *int `json:"table_number"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.TableNumber != nil {
		if _, err := s.tables.Get(*req.TableNumber); err != nil {
			s.writeServiceError(w, r, "table_lookup_failed", err)
			return
		}
	}
	c := cart.FromContext(r.Context())
	c.SelectTable(req.TableNumber)
	s.writeCart(w, r, c)
}

// checkout handles POST /cart/checkout
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	var req order.CheckoutRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	requestID := requestIDFrom(r.Context())
	placed, err := s.orders.Checkout(r.Context(), cart.FromContext(r.Context()), req, requestID)
	if err != nil {
		s.writeServiceError(w, r, "order_creation_failed", err)
		return
	}

	s.writeJSON(w, r, http.StatusCreated, map[string]interface{}{
		"order_number": placed.Number,
		"status":       placed.Status,
		"total_amount": placed.Total.StringFixed(2),
		"priority":     placed.Priority,
		"order":        newOrderView(*placed),
	})
}
