package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderDraftValidate(t *testing.T) {
	lines := []OrderLine{{DishID: 1, Name: "Ceviche", Quantity: 1, UnitPrice: price("130.00")}}

	tests := []struct {
		name      string
		draft     OrderDraft
		wantField string
	}{
		{
			name:  "valid dine in",
			draft: OrderDraft{CustomerName: "Ana María", Type: DineIn, TableNumber: intPtr(4), Lines: lines},
		},
		{
			name:  "valid delivery",
			draft: OrderDraft{CustomerName: "John O'Neil", Type: Delivery, DeliveryAddress: strPtr("Av. Reforma 123, CDMX"), Lines: lines},
		},
		{
			name:  "valid takeout",
			draft: OrderDraft{CustomerName: "Luis", Type: Takeout, Lines: lines},
		},
		{
			name:      "missing customer name",
			draft:     OrderDraft{Type: Takeout, Lines: lines},
			wantField: "customer_name",
		},
		{
			name:      "invalid characters in name",
			draft:     OrderDraft{CustomerName: "R2D2", Type: Takeout, Lines: lines},
			wantField: "customer_name",
		},
		{
			name:      "invalid order type",
			draft:     OrderDraft{CustomerName: "Luis", Type: "drive_thru", Lines: lines},
			wantField: "order_type",
		},
		{
			name:      "dine in without table",
			draft:     OrderDraft{CustomerName: "Luis", Type: DineIn, Lines: lines},
			wantField: "table_number",
		},
		{
			name:      "delivery without address",
			draft:     OrderDraft{CustomerName: "Luis", Type: Delivery, Lines: lines},
			wantField: "delivery_address",
		},
		{
			name:      "takeout with table",
			draft:     OrderDraft{CustomerName: "Luis", Type: Takeout, TableNumber: intPtr(2), Lines: lines},
			wantField: "table_number",
		},
		{
			name:      "empty order",
			draft:     OrderDraft{CustomerName: "Luis", Type: Takeout},
			wantField: "lines",
		},
		{
			name: "quantity too large",
			draft: OrderDraft{CustomerName: "Luis", Type: Takeout, Lines: []OrderLine{
				{DishID: 1, Name: "Ceviche", Quantity: 100, UnitPrice: price("1")},
			}},
			wantField: "lines[0].quantity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestCalculatePriority(t *testing.T) {
	tests := []struct {
		total string
		want  int
	}{
		{"10.00", 1},
		{"49.99", 1},
		{"50.00", 5},
		{"100.00", 5},
		{"100.01", 10},
		{"345.00", 10},
	}
	for _, tt := range tests {
		if got := CalculatePriority(price(tt.total)); got != tt.want {
			t.Errorf("CalculatePriority(%s) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestOrderDraftCalculateTotal(t *testing.T) {
	d := OrderDraft{Lines: []OrderLine{
		{DishID: 1, Name: "Ceviche", Quantity: 2, UnitPrice: price("130.00")},
		{DishID: 2, Name: "Agua fresca", Quantity: 1, UnitPrice: price("85.00")},
	}}
	if got := d.CalculateTotal(); !got.Equal(price("345.00")) {
		t.Fatalf("total = %s, want 345.00", got)
	}
}

func TestGenerateOrderNumber(t *testing.T) {
	date := time.Date(2024, 12, 16, 10, 0, 0, 0, time.UTC)
	if got := GenerateOrderNumber(date, 7); got != "ORD_20241216_007" {
		t.Fatalf("GenerateOrderNumber() = %q", got)
	}
}

func TestGenerateRoutingKey(t *testing.T) {
	if got := GenerateRoutingKey(Delivery, 10); got != "kitchen.delivery.10" {
		t.Fatalf("GenerateRoutingKey() = %q", got)
	}
}

func TestCookingTimesFor(t *testing.T) {
	ct := DefaultCookingTimes()
	if ct.For(DineIn) != 8*time.Second || ct.For(Delivery) != 12*time.Second {
		t.Fatalf("unexpected cooking times: %v", ct)
	}
	if ct.For("unknown") != 10*time.Second {
		t.Fatalf("unknown order type should default to 10s")
	}
}

func TestParseOrderTypes(t *testing.T) {
	got := ParseOrderTypes("dine_in, delivery,bogus")
	if len(got) != 2 || got[0] != DineIn || got[1] != Delivery {
		t.Fatalf("ParseOrderTypes() = %v", got)
	}
	s := Station{OrderTypes: got}
	if s.CanHandle(Takeout) {
		t.Error("station should not handle takeout")
	}
	if !(&Station{}).CanHandle(Takeout) {
		t.Error("unspecialized station should handle everything")
	}
}

func TestParseTableStatus(t *testing.T) {
	if _, err := ParseTableStatus("reserved"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseTableStatus("broken"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
