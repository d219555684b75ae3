package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// listOrders handles GET /orders: the ledger in submission order
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	records := s.ledger.List(r.Context())
	views := make([]orderView, 0, len(records))
	for _, rec := range records {
		views = append(views, newOrderView(rec))
	}
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"count":  len(views),
		"orders": views,
	})
}

// orderStatus handles GET /orders/{number}/status
func (s *Server) orderStatus(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	status, err := s.tracking.GetOrderStatus(r.Context(), number, requestIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, "db_query_failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, status)
}

// orderHistory handles GET /orders/{number}/history
func (s *Server) orderHistory(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	history, err := s.tracking.GetOrderHistory(r.Context(), number, requestIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, "db_query_failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, history)
}

// createInvoice handles POST /orders/{number}/invoice {payment_method}
func (s *Server) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethod string `json:"payment_method"`
	}
	if r.ContentLength != 0 && !s.decodeJSON(w, r, &req) {
		return
	}

	number := chi.URLParam(r, "number")
	inv, err := s.orders.CreateInvoice(r.Context(), number, req.PaymentMethod, requestIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, "invoice_creation_failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, newInvoiceView(inv))
}

// kitchenStations handles GET /kitchen/stations
func (s *Server) kitchenStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.tracking.GetStations(r.Context(), requestIDFrom(r.Context()))
	if err != nil {
		s.writeServiceError(w, r, "db_query_failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, stations)
}
