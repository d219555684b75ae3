package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"restaurant-ordering/internal/adapter/memory"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/messaging"
	"restaurant-ordering/internal/models"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []*models.StatusUpdateMessage
}

func (p *recordingPublisher) PublishStatusUpdate(_ context.Context, msg *models.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, msg)
	return nil
}

func (p *recordingPublisher) snapshot() []*models.StatusUpdateMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*models.StatusUpdateMessage(nil), p.updates...)
}

// queueSource hands its bodies to the handler, then waits for cancellation
type queueSource struct {
	bodies [][]byte
	mu     sync.Mutex
	errs   []error
	done   chan struct{}
	closed bool
}

func newQueueSource(bodies ...[]byte) *queueSource {
	return &queueSource{bodies: bodies, done: make(chan struct{})}
}

func (q *queueSource) StartConsuming(ctx context.Context, handler messaging.MessageHandler) error {
	for _, b := range q.bodies {
		err := handler(ctx, b)
		q.mu.Lock()
		q.errs = append(q.errs, err)
		q.mu.Unlock()
	}
	close(q.done)
	<-ctx.Done()
	return ctx.Err()
}

func (q *queueSource) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

var fastCooking = models.CookingTimes{
	models.DineIn:   10 * time.Millisecond,
	models.Takeout:  10 * time.Millisecond,
	models.Delivery: 10 * time.Millisecond,
}

func seedOrder(t *testing.T, repo *memory.Repository, number string, typ models.OrderType) *models.OrderMessage {
	t.Helper()
	order := &models.OrderRecord{
		ID:        number,
		Number:    number,
		Type:      typ,
		Status:    models.StatusReceived,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateOrder(context.Background(), order, "order-service"); err != nil {
		t.Fatal(err)
	}
	return models.NewOrderMessage(order)
}

func newTestWorker(repo *memory.Repository, pub StatusPublisher, types []models.OrderType, sources ...Source) *Worker {
	return NewWorker(Options{
		Name:              "chef_anna",
		OrderTypes:        types,
		HeartbeatInterval: time.Minute,
		CookingTimes:      fastCooking,
	}, repo, pub, logger.Discard(), sources...)
}

func TestProcessOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	pub := &recordingPublisher{}
	w := newTestWorker(repo, pub, nil)
	if err := repo.RegisterStation(ctx, w.Name(), nil); err != nil {
		t.Fatal(err)
	}
	msg := seedOrder(t, repo, "ORD_20241216_001", models.Takeout)

	if err := w.ProcessOrder(ctx, msg); err != nil {
		t.Fatalf("ProcessOrder() error = %v", err)
	}

	order, err := repo.GetOrder(ctx, msg.OrderNumber)
	if err != nil {
		t.Fatal(err)
	}
	if order.Status != models.StatusReady || order.CompletedAt == nil {
		t.Fatalf("order = %+v, want ready with completion time", order)
	}
	if order.ProcessedBy == nil || *order.ProcessedBy != "chef_anna" {
		t.Fatalf("processed_by = %v", order.ProcessedBy)
	}

	history, _ := repo.OrderHistory(ctx, msg.OrderNumber)
	var statuses []models.OrderStatus
	for _, h := range history {
		statuses = append(statuses, h.Status)
	}
	want := []models.OrderStatus{models.StatusReceived, models.StatusCooking, models.StatusReady}
	if len(statuses) != len(want) {
		t.Fatalf("history = %v, want %v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Fatalf("history = %v, want %v", statuses, want)
		}
	}

	updates := pub.snapshot()
	if len(updates) != 2 {
		t.Fatalf("published %d updates, want 2", len(updates))
	}
	if updates[0].NewStatus != "cooking" || updates[0].EstimatedCompletion == nil {
		t.Errorf("first update = %+v", updates[0])
	}
	if updates[1].OldStatus != "cooking" || updates[1].NewStatus != "ready" || updates[1].EstimatedCompletion != nil {
		t.Errorf("second update = %+v", updates[1])
	}

	stations, _ := repo.ListStations(ctx)
	if len(stations) != 1 || stations[0].OrdersProcessed != 1 {
		t.Fatalf("stations = %+v", stations)
	}
}

func TestProcessOrderUnknownOrder(t *testing.T) {
	w := newTestWorker(memory.NewRepository(), &recordingPublisher{}, nil)
	err := w.ProcessOrder(context.Background(), &models.OrderMessage{OrderNumber: "ORD_missing", OrderType: models.Takeout})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("ProcessOrder() error = %v, want ErrNotFound", err)
	}
}

func TestProcessOrderInterrupted(t *testing.T) {
	repo := memory.NewRepository()
	w := NewWorker(Options{
		Name:         "chef_slow",
		CookingTimes: models.CookingTimes{models.Delivery: time.Hour},
	}, repo, &recordingPublisher{}, logger.Discard())
	msg := seedOrder(t, repo, "ORD_20241216_002", models.Delivery)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.ProcessOrder(ctx, msg) }()

	deadline := time.After(2 * time.Second)
	for {
		o, _ := repo.GetOrder(context.Background(), msg.OrderNumber)
		if o.Status == models.StatusCooking {
			break
		}
		select {
		case <-deadline:
			t.Fatal("order never started cooking")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("ProcessOrder() error = %v, want context.Canceled", err)
	}
	o, _ := repo.GetOrder(context.Background(), msg.OrderNumber)
	if o.Status != models.StatusCooking {
		t.Fatalf("status = %q, want cooking", o.Status)
	}
}

func TestHandleMessage(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRepository()
	w := newTestWorker(repo, &recordingPublisher{}, []models.OrderType{models.DineIn})

	if err := w.HandleMessage(ctx, []byte("{not json")); err != nil {
		t.Fatalf("malformed body should be dropped, got %v", err)
	}

	delivery := seedOrder(t, repo, "ORD_20241216_003", models.Delivery)
	body, _ := json.Marshal(delivery)
	if err := w.HandleMessage(ctx, body); err == nil {
		t.Fatal("dine_in station accepted a delivery order")
	}

	dineIn := seedOrder(t, repo, "ORD_20241216_004", models.DineIn)
	body, _ = json.Marshal(dineIn)
	if err := w.HandleMessage(ctx, body); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}
	if o, _ := repo.GetOrder(ctx, dineIn.OrderNumber); o.Status != models.StatusReady {
		t.Fatalf("status = %q, want ready", o.Status)
	}
}

func TestStartConsumesAndGoesOffline(t *testing.T) {
	repo := memory.NewRepository()
	msg := seedOrder(t, repo, "ORD_20241216_005", models.Takeout)
	body, _ := json.Marshal(msg)
	src := newQueueSource(body)
	w := newTestWorker(repo, &recordingPublisher{}, nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()

	select {
	case <-src.done:
	case <-time.After(2 * time.Second):
		t.Fatal("source never drained")
	}
	stations, _ := repo.ListStations(context.Background())
	if len(stations) != 1 || stations[0].Status != models.StationOnline {
		t.Fatalf("stations = %+v, want one online", stations)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if src.errs[0] != nil {
		t.Fatalf("handler error = %v", src.errs[0])
	}
	if !src.closed {
		t.Error("source not closed on shutdown")
	}
	stations, _ = repo.ListStations(context.Background())
	if stations[0].Status != models.StationOffline {
		t.Fatalf("station status = %q, want offline", stations[0].Status)
	}
	if o, _ := repo.GetOrder(context.Background(), msg.OrderNumber); o.Status != models.StatusReady {
		t.Fatalf("order status = %q, want ready", o.Status)
	}
}

func TestStartRejectsDuplicateStation(t *testing.T) {
	repo := memory.NewRepository()
	if err := repo.RegisterStation(context.Background(), "chef_anna", nil); err != nil {
		t.Fatal(err)
	}
	w := newTestWorker(repo, &recordingPublisher{}, nil)

	err := w.Start(context.Background())
	if !errors.Is(err, ErrStationOnline) {
		t.Fatalf("Start() error = %v, want ErrStationOnline", err)
	}
}

func TestLocalKitchen(t *testing.T) {
	repo := memory.NewRepository()
	var (
		mu       sync.Mutex
		statuses []string
	)
	pub := StatusPublisherFunc(func(_ context.Context, msg *models.StatusUpdateMessage) error {
		mu.Lock()
		defer mu.Unlock()
		statuses = append(statuses, msg.NewStatus)
		return nil
	})
	w := newTestWorker(repo, pub, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	local := NewLocal(ctx, w)

	msg := seedOrder(t, repo, "ORD_20241216_006", models.DineIn)
	if err := local.PublishOrder(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	local.Wait()

	if o, _ := repo.GetOrder(ctx, msg.OrderNumber); o.Status != models.StatusReady {
		t.Fatalf("status = %q, want ready", o.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(statuses) != 2 || statuses[1] != "ready" {
		t.Fatalf("statuses = %v", statuses)
	}

	cancel()
	if err := local.PublishOrder(context.Background(), msg); err == nil {
		t.Fatal("stopped kitchen accepted an order")
	}
}
