package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"restaurant-ordering/internal/models"
)

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response_encoding_failed", "Failed to encode response", requestIDFrom(r.Context()), err, nil)
	}
}

// writeErrorResponse writes an error response in JSON format
func (s *Server) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, message string, fields map[string]interface{}) {
	body := map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestIDFrom(r.Context()),
	}
	for k, v := range fields {
		body[k] = v
	}
	s.writeJSON(w, r, statusCode, body)
}

// writeServiceError maps domain errors to status codes; anything else is a 500
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		s.writeErrorResponse(w, r, http.StatusBadRequest, verr.Message, map[string]interface{}{"field": verr.Field})
	case errors.Is(err, models.ErrNotFound):
		s.writeErrorResponse(w, r, http.StatusNotFound, err.Error(), nil)
	default:
		s.logger.Error(action, "Request failed", requestIDFrom(r.Context()), err, map[string]interface{}{
			"path": r.URL.Path,
		})
		s.writeErrorResponse(w, r, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// decodeJSON rejects unknown fields and trailing garbage
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.logger.Debug("validation_failed", "Failed to parse request body", requestIDFrom(r.Context()), map[string]interface{}{
			"error": err.Error(),
		})
		s.writeErrorResponse(w, r, http.StatusBadRequest, "Invalid JSON format", nil)
		return false
	}
	if dec.More() {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "Invalid JSON format", nil)
		return false
	}
	return true
}

// intParam reads a positive integer path parameter
func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v <= 0 {
		s.writeErrorResponse(w, r, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return v, true
}
