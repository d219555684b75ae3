// Package httpapi exposes the ordering views over HTTP
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/ledger"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/menu"
	"restaurant-ordering/internal/notification"
	"restaurant-ordering/internal/services/order"
	"restaurant-ordering/internal/services/tracking"
	"restaurant-ordering/internal/tables"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Deps are the components behind the API
type Deps struct {
	Catalog       *menu.Catalog
	Carts         *cart.Registry
	Orders        *order.Service
	Tracking      *tracking.Service
	Ledger        *ledger.Ledger
	Tables        *tables.Registry
	Notifications *notification.List
	Health        map[string]HealthCheck
	MaxConcurrent int
}

// Server holds the HTTP handlers
type Server struct {
	catalog       *menu.Catalog
	carts         *cart.Registry
	orders        *order.Service
	tracking      *tracking.Service
	ledger        *ledger.Ledger
	tables        *tables.Registry
	notifications *notification.List
	health        map[string]HealthCheck
	maxConcurrent int
	logger        *logger.Logger
}

func NewServer(d Deps, log *logger.Logger) *Server {
	return &Server{
		catalog:       d.Catalog,
		carts:         d.Carts,
		orders:        d.Orders,
		tracking:      d.Tracking,
		ledger:        d.Ledger,
		tables:        d.Tables,
		notifications: d.Notifications,
		health:        d.Health,
		maxConcurrent: d.MaxConcurrent,
		logger:        log,
	}
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.withLogging)
	r.Use(middleware.Recoverer)
	if s.maxConcurrent > 0 {
		r.Use(middleware.Throttle(s.maxConcurrent))
	}

	r.Get("/health", s.healthCheck)
	r.Get("/navigation/{role}", s.navigation)

	r.Route("/menu", func(r chi.Router) {
		r.Get("/", s.listMenu)
		r.Get("/categories", s.menuCategories)
		r.Get("/{id}", s.getDish)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/", s.getCart)
		r.Delete("/", s.clearCart)
		r.Post("/items", s.addCartItem)
		r.Post("/items/{id}/decrement", s.decrementCartItem)
		r.Put("/items/{id}", s.setCartItemQuantity)
		r.Delete("/items/{id}", s.deleteCartItem)
		r.Put("/notes", s.setCartNotes)
		r.Put("/table", s.selectCartTable)
		r.Post("/checkout", s.checkout)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.listOrders)
		r.Get("/{number}/status", s.orderStatus)
		r.Get("/{number}/history", s.orderHistory)
		r.Post("/{number}/invoice", s.createInvoice)
	})

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", s.listTables)
		r.Get("/{number}", s.getTable)
		r.Patch("/{number}", s.updateTable)
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Get("/", s.listNotifications)
		r.Get("/unread-count", s.unreadCount)
		r.Post("/read-all", s.markNotificationsRead)
		r.Delete("/", s.clearNotifications)
	})

	r.Get("/kitchen/stations", s.kitchenStations)
	return r
}

// healthCheck handles GET /health requests
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.health))
	healthy := true
	for name, check := range s.health {
		if err := check(ctx); err != nil {
			s.logger.Error("health_check_failed", name+" check failed", requestIDFrom(r.Context()), err, nil)
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "restaurant-api",
		"checks":    checks,
	}
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
		response["status"] = "unhealthy"
	}
	s.writeJSON(w, r, status, response)
}
