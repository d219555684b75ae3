package tracking

import (
	"context"
	"fmt"
	"time"

	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/models"
)

// Reader is the read side of the order and station stores
type Reader interface {
	GetOrder(ctx context.Context, number string) (*models.OrderRecord, error)
	OrderHistory(ctx context.Context, number string) ([]models.OrderStatusHistory, error)
	ListStations(ctx context.Context) ([]models.Station, error)
}

// Service answers order status and kitchen station queries
type Service struct {
	reader            Reader
	cookingTimes      models.CookingTimes
	heartbeatInterval time.Duration
	logger            *logger.Logger
	now               func() time.Time
}

// NewService creates a new tracking service. Stations silent for more than
// two heartbeat intervals are reported offline.
func NewService(reader Reader, cookingTimes models.CookingTimes, heartbeatInterval time.Duration, log *logger.Logger) *Service {
	if cookingTimes == nil {
		cookingTimes = models.DefaultCookingTimes()
	}
	if heartbeatInterval <= 0 {
		heartbeatInterval = 30 * time.Second
	}
	return &Service{
		reader:            reader,
		cookingTimes:      cookingTimes,
		heartbeatInterval: heartbeatInterval,
		logger:            log,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

// GetOrderStatus retrieves the current status of an order
func (s *Service) GetOrderStatus(ctx context.Context, orderNumber, requestID string) (*models.OrderTrackingResponse, error) {
	order, err := s.reader.GetOrder(ctx, orderNumber)
	if err != nil {
		return nil, err
	}

	var eta *time.Time
	if order.Status == models.StatusCooking {
		estimated := order.UpdatedAt.Add(s.cookingTimes.For(order.Type))
		eta = &estimated
	}

	s.logger.Debug("order_status_read", "Order status requested", requestID, map[string]interface{}{
		"order_number": order.Number,
		"status":       order.Status,
	})

	return &models.OrderTrackingResponse{
		OrderNumber:         order.Number,
		CurrentStatus:       string(order.Status),
		UpdatedAt:           order.UpdatedAt,
		EstimatedCompletion: eta,
		ProcessedBy:         order.ProcessedBy,
	}, nil
}

// GetOrderHistory retrieves the complete status history of an order
func (s *Service) GetOrderHistory(ctx context.Context, orderNumber, requestID string) ([]models.OrderStatusHistory, error) {
	history, err := s.reader.OrderHistory(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.OrderStatusHistory{}
	}
	return history, nil
}

// GetStations lists kitchen stations with their liveness worked out from the last heartbeat
func (s *Service) GetStations(ctx context.Context, requestID string) ([]models.Station, error) {
	stations, err := s.reader.ListStations(ctx)
	if err != nil {
		s.logger.Error("db_query_failed", "Failed to query kitchen stations", requestID, err, nil)
		return nil, fmt.Errorf("list stations: %w", err)
	}

	out := make([]models.Station, 0, len(stations))
	for _, st := range stations {
		if st.Status == models.StationOnline && s.now().Sub(st.LastSeen) > 2*s.heartbeatInterval {
			st.Status = models.StationOffline
		}
		out = append(out, st)
	}
	return out, nil
}
