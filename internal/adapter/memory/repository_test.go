package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-ordering/internal/models"
)

func TestNextSequenceIsPerDay(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	d1 := time.Date(2024, 12, 16, 9, 0, 0, 0, time.UTC)
	d2 := d1.Add(24 * time.Hour)

	for want := 1; want <= 3; want++ {
		got, _ := r.NextSequence(ctx, d1)
		if got != want {
			t.Fatalf("NextSequence(d1) = %d, want %d", got, want)
		}
	}
	if got, _ := r.NextSequence(ctx, d2); got != 1 {
		t.Fatalf("NextSequence(d2) = %d, want 1", got)
	}
}

func TestOrderLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	created := time.Date(2024, 12, 16, 9, 0, 0, 0, time.UTC)
	order := &models.OrderRecord{ID: "id-1", Number: "ORD_20241216_001", Status: models.StatusReceived, CreatedAt: created}

	if err := r.CreateOrder(ctx, order, "order-service"); err != nil {
		t.Fatal(err)
	}
	if err := r.CreateOrder(ctx, order, "order-service"); err == nil {
		t.Fatal("duplicate order number accepted")
	}

	if err := r.UpdateOrderStatus(ctx, order.Number, models.StatusCooking, "chef_1", "", created.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := r.UpdateOrderStatus(ctx, order.Number, models.StatusReady, "chef_1", "done", created.Add(2*time.Minute)); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetOrder(ctx, order.Number)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusReady || got.CompletedAt == nil || *got.ProcessedBy != "chef_1" {
		t.Fatalf("GetOrder() = %+v", got)
	}

	history, _ := r.OrderHistory(ctx, order.Number)
	if len(history) != 3 || history[0].Status != models.StatusReceived || history[2].Status != models.StatusReady {
		t.Fatalf("history = %+v", history)
	}

	if _, err := r.GetOrder(ctx, "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("GetOrder(nope) error = %v", err)
	}
	if err := r.UpdateOrderStatus(ctx, "nope", models.StatusReady, "", "", created); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("UpdateOrderStatus(nope) error = %v", err)
	}
}

func TestStations(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	_ = r.RegisterStation(ctx, "chef_b", nil)
	_ = r.RegisterStation(ctx, "chef_a", []models.OrderType{models.Delivery})
	_ = r.StationHeartbeat(ctx, "chef_a", 2)
	_ = r.SetStationStatus(ctx, "chef_b", models.StationOffline)

	stations, _ := r.ListStations(ctx)
	if len(stations) != 2 || stations[0].Name != "chef_b" || stations[1].Name != "chef_a" {
		t.Fatalf("stations = %+v", stations)
	}
	if stations[0].Status != models.StationOffline || stations[1].OrdersProcessed != 2 {
		t.Fatalf("stations = %+v", stations)
	}
}
