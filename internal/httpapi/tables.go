package httpapi

import (
	"net/http"

	"restaurant-ordering/internal/models"
	"restaurant-ordering/internal/tables"
)

// listTables handles GET /tables?status=
func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	var status models.TableStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseTableStatus(raw)
		if err != nil {
			s.writeServiceError(w, r, "validation_failed", err)
			return
		}
		status = parsed
	}
	s.writeJSON(w, r, http.StatusOK, s.tables.List(status))
}

func (s *Server) getTable(w http.ResponseWriter, r *http.Request) {
	number, ok := s.intParam(w, r, "number")
	if !ok {
		return
	}
	table, err := s.tables.Get(number)
	if err != nil {
		s.writeServiceError(w, r, "table_lookup_failed", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, table)
}

// updateTable handles PATCH /tables/{number} {status?, assigned_staff?}
func (s *Server) updateTable(w http.ResponseWriter, r *http.Request) {
	number, ok := s.intParam(w, r, "number")
	if !ok {
		return
	}
	var req struct {
		Status        *string `json:"status"`
		AssignedStaff *string `json:"assigned_staff"`
	}
	if !s.decodeJSON(w, r, &req) {
		return
	}

	update := tables.Update{AssignedStaff: req.AssignedStaff}
	if req.Status != nil {
		status, err := models.ParseTableStatus(*req.Status)
		if err != nil {
			s.writeServiceError(w, r, "validation_failed", err)
			return
		}
		update.Status = &status
	}

	table, err := s.tables.Update(number, update)
	if err != nil {
		s.writeServiceError(w, r, "table_update_failed", err)
		return
	}
	s.logger.Info("table_updated", "Table updated", requestIDFrom(r.Context()), map[string]interface{}{
		"table_number": table.Number,
		"status":       table.Status,
	})
	s.writeJSON(w, r, http.StatusOK, table)
}
