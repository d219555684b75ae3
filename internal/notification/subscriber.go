package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/messaging"
	"restaurant-ordering/internal/models"
)

// Source delivers raw status update messages
type Source interface {
	StartConsuming(ctx context.Context, handler messaging.MessageHandler) error
	Close() error
}

// Handler reacts to a decoded status update
type Handler func(ctx context.Context, update *models.StatusUpdateMessage) error

// Subscriber consumes kitchen status updates and fans them out to handlers
type Subscriber struct {
	source   Source
	logger   *logger.Logger
	handlers []Handler
}

// NewSubscriber creates a new notification subscriber. Handlers run in order
// and the first failure stops the rest, leaving the message to be redelivered:
// handlers that can fail must be safe to repeat and go before handlers that
// append, such as Feed and Printer.
func NewSubscriber(source Source, log *logger.Logger, handlers ...Handler) *Subscriber {
	return &Subscriber{
		source:   source,
		logger:   log,
		handlers: handlers,
	}
}

// Printer returns a handler writing one human-readable line per update to w
func Printer(w io.Writer) Handler {
	return func(_ context.Context, update *models.StatusUpdateMessage) error {
		_, err := fmt.Fprintln(w, FormatStatusUpdate(update))
		return err
	}
}

// Feed returns a handler appending each update to list
func Feed(list *List) Handler {
	return func(_ context.Context, update *models.StatusUpdateMessage) error {
		list.Append(FromStatusUpdate(update))
		return nil
	}
}

// Start consumes until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	err := s.source.StartConsuming(ctx, s.Handle)

	s.logger.Info("graceful_shutdown", "Notification subscriber stopping", requestID, nil)
	if closeErr := s.source.Close(); closeErr != nil {
		s.logger.Error("consumer_close_failed", "Failed to close notification consumer", requestID, closeErr, nil)
	}
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Handle decodes one message and runs every handler on it
func (s *Subscriber) Handle(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var update models.StatusUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		// acked and dropped: a malformed body never parses on redelivery
		s.logger.Error("message_parsing_failed", "Failed to parse notification message", requestID, err, nil)
		return nil
	}

	s.logger.Debug("notification_received", "Received status update notification", requestID, map[string]interface{}{
		"order_number": update.OrderNumber,
		"new_status":   update.NewStatus,
		"changed_by":   update.ChangedBy,
	})
	return s.Dispatch(ctx, &update)
}

// Dispatch runs every handler on an already decoded update. The in-process
// kitchen calls it directly when no broker is configured.
func (s *Subscriber) Dispatch(ctx context.Context, update *models.StatusUpdateMessage) error {
	for _, h := range s.handlers {
		if err := h(ctx, update); err != nil {
			return fmt.Errorf("handle status update for %s: %w", update.OrderNumber, err)
		}
	}
	return nil
}
