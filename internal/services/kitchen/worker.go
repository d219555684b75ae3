package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/messaging"
	"restaurant-ordering/internal/models"
)

// ErrStationOnline is returned when another process already runs under the same station name
var ErrStationOnline = errors.New("station is already online")

// Store records order progress and station liveness
type Store interface {
	UpdateOrderStatus(ctx context.Context, number string, status models.OrderStatus, changedBy, note string, at time.Time) error
	RegisterStation(ctx context.Context, name string, orderTypes []models.OrderType) error
	SetStationStatus(ctx context.Context, name string, status models.StationStatus) error
	StationHeartbeat(ctx context.Context, name string, processed int) error
	ListStations(ctx context.Context) ([]models.Station, error)
}

// StatusPublisher announces order status changes
type StatusPublisher interface {
	PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error
}

// StatusPublisherFunc adapts a function to StatusPublisher
type StatusPublisherFunc func(ctx context.Context, msg *models.StatusUpdateMessage) error

func (f StatusPublisherFunc) PublishStatusUpdate(ctx context.Context, msg *models.StatusUpdateMessage) error {
	return f(ctx, msg)
}

// Source delivers raw kitchen tickets from one queue
type Source interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Options configures a station
type Options struct {
	Name              string
	OrderTypes        []models.OrderType
	HeartbeatInterval time.Duration
	CookingTimes      models.CookingTimes
}

// Worker is a kitchen station: it cooks tickets and reports their progress
type Worker struct {
	name              string
	orderTypes        []models.OrderType
	heartbeatInterval time.Duration
	cookingTimes      models.CookingTimes

	store     Store
	publisher StatusPublisher
	sources   []Source
	logger    *logger.Logger
	now       func() time.Time
}

// NewWorker creates a station consuming from sources. A worker without
// sources only cooks what is handed to ProcessOrder.
func NewWorker(opts Options, store Store, publisher StatusPublisher, log *logger.Logger, sources ...Source) *Worker {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.CookingTimes == nil {
		opts.CookingTimes = models.DefaultCookingTimes()
	}
	return &Worker{
		name:              opts.Name,
		orderTypes:        opts.OrderTypes,
		heartbeatInterval: opts.HeartbeatInterval,
		cookingTimes:      opts.CookingTimes,
		store:             store,
		publisher:         publisher,
		sources:           sources,
		logger:            log,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (w *Worker) Name() string { return w.name }

// Start registers the station, then consumes and sends heartbeats until ctx
// is cancelled. The station is marked offline on the way out.
func (w *Worker) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	if err := w.register(ctx, requestID); err != nil {
		return err
	}

	w.logger.Info("worker_started", fmt.Sprintf("Kitchen station %s started", w.name), requestID, map[string]interface{}{
		"worker_name":        w.name,
		"order_types":        w.orderTypes,
		"heartbeat_interval": w.heartbeatInterval.Seconds(),
		"queues":             len(w.sources),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.heartbeatLoop(gctx)
		return nil
	})
	for _, src := range w.sources {
		src := src
		g.Go(func() error {
			return src.StartConsuming(gctx, w.HandleMessage)
		})
	}

	err := g.Wait()
	w.shutdown(requestID)
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (w *Worker) register(ctx context.Context, requestID string) error {
	stations, err := w.store.ListStations(ctx)
	if err != nil {
		return fmt.Errorf("failed to check station status: %w", err)
	}
	for i := range stations {
		if stations[i].Name == w.name && stations[i].IsOnline(w.heartbeatInterval) {
			w.logger.Error("worker_registration_failed", "Station with same name is already online", requestID, nil, map[string]interface{}{
				"worker_name": w.name,
			})
			return fmt.Errorf("%s: %w", w.name, ErrStationOnline)
		}
	}

	if err := w.store.RegisterStation(ctx, w.name, w.orderTypes); err != nil {
		return fmt.Errorf("failed to register station: %w", err)
	}
	w.logger.Info("worker_registered", fmt.Sprintf("Station %s registered", w.name), requestID, nil)
	return nil
}

// HandleMessage decodes one kitchen ticket and cooks it
func (w *Worker) HandleMessage(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var msg models.OrderMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// acked and dropped: a malformed ticket never parses on redelivery
		w.logger.Error("message_parsing_failed", "Failed to parse order message", requestID, err, nil)
		return nil
	}

	station := models.Station{Name: w.name, OrderTypes: w.orderTypes}
	if !station.CanHandle(msg.OrderType) {
		w.logger.Debug("order_rejected", fmt.Sprintf("Station %s cannot handle order type %s", w.name, msg.OrderType), requestID, map[string]interface{}{
			"order_number": msg.OrderNumber,
			"order_type":   msg.OrderType,
		})
		// nacked and requeued for a station that can
		return fmt.Errorf("station %s cannot handle order type %s", w.name, msg.OrderType)
	}

	return w.process(ctx, &msg, requestID)
}

// ProcessOrder moves an order through cooking to ready
func (w *Worker) ProcessOrder(ctx context.Context, msg *models.OrderMessage) error {
	return w.process(ctx, msg, logger.GenerateRequestID())
}

func (w *Worker) process(ctx context.Context, msg *models.OrderMessage, requestID string) error {
	fields := map[string]interface{}{
		"order_number": msg.OrderNumber,
		"order_type":   msg.OrderType,
		"worker_name":  w.name,
	}

	cookingTime := w.cookingTimes.For(msg.OrderType)
	startedAt := w.now()
	if err := w.store.UpdateOrderStatus(ctx, msg.OrderNumber, models.StatusCooking, w.name,
		fmt.Sprintf("cooking at %s", w.name), startedAt); err != nil {
		return fmt.Errorf("failed to mark order cooking: %w", err)
	}

	eta := startedAt.Add(cookingTime)
	w.announce(ctx, models.CreateStatusUpdateMessage(msg.OrderNumber,
		string(models.StatusReceived), string(models.StatusCooking), w.name, &eta), requestID)

	w.logger.Debug("cooking_started", fmt.Sprintf("Cooking order %s for %v", msg.OrderNumber, cookingTime), requestID, fields)

	timer := time.NewTimer(cookingTime)
	select {
	case <-ctx.Done():
		timer.Stop()
		w.logger.Warn("cooking_interrupted", "Station stopped while cooking", requestID, fields)
		return ctx.Err()
	case <-timer.C:
	}

	if err := w.store.UpdateOrderStatus(ctx, msg.OrderNumber, models.StatusReady, w.name,
		"ready for pickup or delivery", w.now()); err != nil {
		return fmt.Errorf("failed to mark order ready: %w", err)
	}
	if err := w.store.StationHeartbeat(ctx, w.name, 1); err != nil {
		w.logger.Error("heartbeat_failed", "Failed to count processed order", requestID, err, fields)
	}

	w.announce(ctx, models.CreateStatusUpdateMessage(msg.OrderNumber,
		string(models.StatusCooking), string(models.StatusReady), w.name, nil), requestID)

	w.logger.Debug("order_completed", fmt.Sprintf("Order %s ready", msg.OrderNumber), requestID, fields)
	return nil
}

// announce publishes a status update; a lost notification does not fail the order
func (w *Worker) announce(ctx context.Context, update *models.StatusUpdateMessage, requestID string) {
	if err := w.publisher.PublishStatusUpdate(ctx, update); err != nil {
		w.logger.Error("notification_publish_failed", "Failed to publish status update", requestID, err, map[string]interface{}{
			"order_number": update.OrderNumber,
			"new_status":   update.NewStatus,
		})
	}
}

func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.StationHeartbeat(ctx, w.name, 0); err != nil {
				w.logger.Error("heartbeat_failed", "Failed to send heartbeat", "", err, nil)
			} else {
				w.logger.Debug("heartbeat_sent", "Heartbeat sent", "", nil)
			}
		}
	}
}

func (w *Worker) shutdown(requestID string) {
	w.logger.Info("graceful_shutdown", "Stopping kitchen station", requestID, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.store.SetStationStatus(ctx, w.name, models.StationOffline); err != nil {
		w.logger.Error("shutdown_failed", "Failed to mark station offline", requestID, err, nil)
	}
	for _, src := range w.sources {
		if err := src.Close(); err != nil {
			w.logger.Error("consumer_close_failed", "Failed to close kitchen consumer", requestID, err, nil)
		}
	}
}

// Local cooks orders in-process. It stands in for the broker when none is
// configured and satisfies the order service's KitchenPublisher.
type Local struct {
	ctx    context.Context
	worker *Worker
	wg     sync.WaitGroup
}

// NewLocal returns a kitchen whose cooking goroutines live as long as ctx
func NewLocal(ctx context.Context, worker *Worker) *Local {
	return &Local{ctx: ctx, worker: worker}
}

// PublishOrder starts cooking msg in the background
func (l *Local) PublishOrder(_ context.Context, msg *models.OrderMessage) error {
	if err := l.ctx.Err(); err != nil {
		return fmt.Errorf("local kitchen stopped: %w", err)
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.worker.ProcessOrder(l.ctx, msg); err != nil && l.ctx.Err() == nil {
			l.worker.logger.Error("order_processing_failed", "Local kitchen failed to process order", "", err, map[string]interface{}{
				"order_number": msg.OrderNumber,
			})
		}
	}()
	return nil
}

// Wait blocks until every started order has finished or been interrupted
func (l *Local) Wait() {
	l.wg.Wait()
}
