package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/logger"
)

const (
	// SessionHeader carries the id of the cart a request works on
	SessionHeader = "X-Session-ID"
	// RoleHeader names the caller's role badge. It is display only and grants nothing.
	RoleHeader = "X-Role"
)

type ctxKey int

const requestIDKey ctxKey = iota

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withLogging assigns a request id and logs every request
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		s.logger.Debug("request_started", fmt.Sprintf("%s %s", r.Method, r.URL.Path), requestID, map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"remote_addr": r.RemoteAddr,
			"user_agent":  r.Header.Get("User-Agent"),
			"role":        r.Header.Get(RoleHeader),
		})

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.Debug("request_completed", fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode), requestID, map[string]interface{}{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// withSession installs the session's cart in the request context. A request
// without a session id starts a new session; the id is echoed back either way.
// Reads do not register the session, so a cart only becomes live on its first
// change.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(SessionHeader)
		if sessionID == "" {
			sessionID = uuid.NewString()
		}
		w.Header().Set(SessionHeader, sessionID)

		var c *cart.Cart
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			c = s.carts.View(r.Context(), sessionID)
		} else {
			c = s.carts.Get(r.Context(), sessionID)
		}
		next.ServeHTTP(w, r.WithContext(cart.WithCart(r.Context(), c)))
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
