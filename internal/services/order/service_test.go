package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"restaurant-ordering/internal/adapter/memory"
	"restaurant-ordering/internal/cart"
	"restaurant-ordering/internal/kvstore"
	"restaurant-ordering/internal/ledger"
	"restaurant-ordering/internal/logger"
	"restaurant-ordering/internal/menu"
	"restaurant-ordering/internal/models"
	"restaurant-ordering/internal/tables"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*models.OrderMessage
	err  error
}

func (p *recordingPublisher) PublishOrder(_ context.Context, msg *models.OrderMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fixture struct {
	svc       *Service
	repo      *memory.Repository
	publisher *recordingPublisher
	ledger    *ledger.Ledger
	tables    *tables.Registry
	catalog   *menu.Catalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	catalog, err := menu.NewCatalog(menu.Seed())
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := tables.NewRegistry(tables.Seed())
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		repo:      memory.NewRepository(),
		publisher: &recordingPublisher{},
		ledger:    ledger.New(kvstore.NewMemory(), "orders", "kitchen_orders", logger.Discard()),
		tables:    tbl,
		catalog:   catalog,
	}
	f.svc = NewService(f.repo, f.publisher, f.ledger, f.tables, f.catalog, logger.Discard())
	return f
}

func (f *fixture) add(t *testing.T, c *cart.Cart, ids ...int) {
	t.Helper()
	for _, id := range ids {
		d, ok := f.catalog.Lookup(id)
		if !ok {
			t.Fatalf("dish %d not in catalog", id)
		}
		c.AddItem(d)
	}
}

func TestCheckoutDineIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := cart.New()
	f.add(t, c, 1, 2, 1)
	c.SetNotes("sin cilantro")
	table := 4
	c.SelectTable(&table)

	order, err := f.svc.Checkout(ctx, c, CheckoutRequest{CustomerName: "Ana"}, "req-1")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}

	if order.Type != models.DineIn {
		t.Errorf("type = %q, want dine_in", order.Type)
	}
	if !order.Total.Equal(decimal.RequireFromString("345.00")) {
		t.Errorf("total = %s, want 345.00", order.Total)
	}
	if order.Priority != 10 {
		t.Errorf("priority = %d, want 10", order.Priority)
	}
	if order.Notes != "sin cilantro" || len(order.Lines) != 2 || order.Lines[0].Quantity != 2 {
		t.Errorf("order = %+v", order)
	}

	stored, err := f.repo.GetOrder(ctx, order.Number)
	if err != nil || stored.ID != order.ID {
		t.Fatalf("order not stored: %v", err)
	}
	if got := f.ledger.List(ctx); len(got) != 1 || got[0].Number != order.Number {
		t.Fatalf("ledger = %+v", got)
	}
	if len(f.publisher.msgs) != 1 || f.publisher.msgs[0].OrderNumber != order.Number {
		t.Fatalf("published = %+v", f.publisher.msgs)
	}
	if tbl, _ := f.tables.Get(4); tbl.Status != models.TableOccupied {
		t.Errorf("table status = %q, want occupied", tbl.Status)
	}

	snap := c.Snapshot()
	if len(snap.Lines) != 0 || snap.Notes != "" || snap.SelectedTable != nil {
		t.Fatalf("cart not cleared: %+v", snap)
	}
}

// addingPublisher adds to the cart while the order is being sent to the
// kitchen, like a second request on the same session would
type addingPublisher struct {
	recordingPublisher
	cart *cart.Cart
	dish models.Dish
}

func (p *addingPublisher) PublishOrder(ctx context.Context, msg *models.OrderMessage) error {
	p.cart.AddItem(p.dish)
	return p.recordingPublisher.PublishOrder(ctx, msg)
}

func TestCheckoutKeepsItemsAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := cart.New()
	f.add(t, c, 1)

	agua, _ := f.catalog.Lookup(10)
	f.svc.publisher = &addingPublisher{cart: c, dish: agua}

	order, err := f.svc.Checkout(ctx, c, CheckoutRequest{CustomerName: "Ana"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(order.Lines) != 1 || order.Lines[0].DishID != 1 {
		t.Fatalf("order lines = %+v", order.Lines)
	}
	lines := c.Lines()
	if len(lines) != 1 || lines[0].Dish.ID != 10 || lines[0].Quantity != 1 {
		t.Fatalf("cart after checkout = %+v, want the dish added meanwhile", lines)
	}
}

func TestCheckoutOrderNumbersIncrease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	var numbers []string
	for i := 0; i < 2; i++ {
		c := cart.New()
		f.add(t, c, 10)
		order, err := f.svc.Checkout(ctx, c, CheckoutRequest{CustomerName: "Luis"}, "")
		if err != nil {
			t.Fatal(err)
		}
		numbers = append(numbers, order.Number)
	}
	if numbers[0] == numbers[1] || numbers[0][len(numbers[0])-3:] != "001" || numbers[1][len(numbers[1])-3:] != "002" {
		t.Fatalf("order numbers = %v", numbers)
	}
}

func TestCheckoutRejections(t *testing.T) {
	addr := "Av. Insurgentes Sur 1234"
	tests := []struct {
		name      string
		dishes    []int
		table     *int
		req       CheckoutRequest
		wantField string
	}{
		{"empty cart", nil, nil, CheckoutRequest{CustomerName: "Luis"}, "lines"},
		{"missing name", []int{1}, nil, CheckoutRequest{}, "customer_name"},
		{"unavailable dish", []int{3}, nil, CheckoutRequest{CustomerName: "Luis"}, "lines[0]"},
		{"delivery without address", []int{1}, nil, CheckoutRequest{CustomerName: "Luis", OrderType: "delivery"}, "delivery_address"},
		{"delivery with table", []int{1}, intPtr(2), CheckoutRequest{CustomerName: "Luis", OrderType: "delivery", DeliveryAddress: &addr}, "table_number"},
		{"unknown table", []int{1}, intPtr(42), CheckoutRequest{CustomerName: "Luis"}, "table_number"},
		{"table in maintenance", []int{1}, intPtr(7), CheckoutRequest{CustomerName: "Luis"}, "table_number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := cart.New()
			for _, id := range tt.dishes {
				d, _ := f.catalog.Lookup(id)
				c.AddItem(d)
			}
			c.SelectTable(tt.table)

			_, err := f.svc.Checkout(context.Background(), c, tt.req, "")
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Checkout() error = %v, want ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
			if len(f.publisher.msgs) != 0 {
				t.Error("rejected order reached the kitchen")
			}
			if len(c.Lines()) != len(uniq(tt.dishes)) {
				t.Error("rejected checkout cleared the cart")
			}
		})
	}
}

func TestCheckoutPublishFailureKeepsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	c := cart.New()
	f.add(t, c, 4)
	order, err := f.svc.Checkout(ctx, c, CheckoutRequest{CustomerName: "Luis", OrderType: "takeout"}, "")
	if err != nil {
		t.Fatalf("Checkout() error = %v", err)
	}
	if _, err := f.repo.GetOrder(ctx, order.Number); err != nil {
		t.Fatal("order lost after publish failure")
	}
	if len(c.Lines()) != 0 {
		t.Fatal("cart not cleared")
	}
}

func TestCreateInvoice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := cart.New()
	f.add(t, c, 2, 2)
	order, err := f.svc.Checkout(ctx, c, CheckoutRequest{CustomerName: "Luis"}, "")
	if err != nil {
		t.Fatal(err)
	}

	pending, err := f.svc.CreateInvoice(ctx, order.Number, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if pending.PaymentStatus != models.PaymentPending || pending.PaymentDate != nil {
		t.Fatalf("pending invoice = %+v", pending)
	}
	if !pending.Total.Equal(decimal.RequireFromString("170")) {
		t.Fatalf("invoice total = %s", pending.Total)
	}

	paid, err := f.svc.CreateInvoice(ctx, order.Number, "CARD", "")
	if err != nil {
		t.Fatal(err)
	}
	if paid.PaymentStatus != models.PaymentPaid || paid.PaymentDate == nil || paid.ID != pending.ID {
		t.Fatalf("paid invoice = %+v", paid)
	}

	if _, err := f.svc.CreateInvoice(ctx, order.Number, "BITCOIN", ""); err == nil {
		t.Fatal("unknown payment method accepted")
	}
	if _, err := f.svc.CreateInvoice(ctx, "ORD_missing", "CASH", ""); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("missing order error = %v", err)
	}
}

func intPtr(v int) *int { return &v }

func uniq(ids []int) map[int]bool {
	out := make(map[int]bool)
	for _, id := range ids {
		out[id] = true
	}
	return out
}
