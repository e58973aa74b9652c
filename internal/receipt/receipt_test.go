package receipt

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validOrder() *Order {
	return &Order{
		ID:            "ord-1",
		OrderNumber:   "1042",
		Type:          OrderTypeCarryout,
		CreatedAt:     time.Date(2025, time.March, 14, 13, 5, 0, 0, time.UTC),
		CustomerName:  "Adaeze Obi",
		CustomerPhone: "08031234567",
		Items: []OrderItem{
			{Quantity: 2, Name: "Jollof Rice", LinePrice: decimal.NewFromInt(5000)},
		},
		Subtotal:      decimal.NewFromInt(5000),
		Total:         decimal.NewFromInt(5000),
		PaymentStatus: "PAID",
	}
}

func TestFromOrderMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Order)
		field  string
	}{
		{"no id", func(o *Order) { o.ID = "" }, "id"},
		{"no order number", func(o *Order) { o.OrderNumber = "" }, "order_number"},
		{"no customer name", func(o *Order) { o.CustomerName = "" }, "customer_name"},
		{"no phone", func(o *Order) { o.CustomerPhone = "" }, "customer_phone"},
		{"no items", func(o *Order) { o.Items = nil }, "items"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := validOrder()
			tt.mutate(o)

			_, err := FromOrder(o)
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var missing *MissingFieldError
			if !errors.As(err, &missing) {
				t.Fatalf("expected MissingFieldError, got %T: %v", err, err)
			}
			if missing.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, missing.Field)
			}
		})
	}
}

func TestFromOrderSnapshot(t *testing.T) {
	o := validOrder()
	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}

	if r.OrderID != "ord-1" || r.OrderNumber != "1042" {
		t.Errorf("unexpected identity: %s / %s", r.OrderID, r.OrderNumber)
	}
	if r.Date != "Mar 14, 2025" {
		t.Errorf("unexpected date: %q", r.Date)
	}
	if r.Time != "1:05 PM" {
		t.Errorf("unexpected time: %q", r.Time)
	}
	if len(r.Items) != 1 || r.Items[0].Name != "Jollof Rice" {
		t.Errorf("unexpected items: %+v", r.Items)
	}
	if !r.Total.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("unexpected total: %s", r.Total)
	}
}

func TestFromOrderDefaultsTypeToCarryout(t *testing.T) {
	o := validOrder()
	o.Type = ""

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}
	if r.OrderType != OrderTypeCarryout {
		t.Errorf("expected carryout default, got %q", r.OrderType)
	}
}

func TestFromOrderDeliveryAddress(t *testing.T) {
	o := validOrder()
	o.Type = OrderTypeDelivery
	o.Address = &Address{Street: "12 Allen Avenue", City: "Ikeja"}
	o.DeliveryFee = decimal.NewFromInt(500)
	o.Total = decimal.NewFromInt(5500)

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}
	if r.Delivery == nil {
		t.Fatal("expected delivery address on snapshot")
	}
	if r.Delivery.Street != "12 Allen Avenue" {
		t.Errorf("unexpected street: %q", r.Delivery.Street)
	}

	// Mutating the source address must not leak into the snapshot.
	o.Address.Street = "changed"
	if r.Delivery.Street != "12 Allen Avenue" {
		t.Error("snapshot shares memory with source address")
	}
}

func TestFromOrderCarryoutIgnoresAddress(t *testing.T) {
	o := validOrder()
	o.Address = &Address{Street: "12 Allen Avenue"}

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}
	if r.Delivery != nil {
		t.Error("carryout order should not carry a delivery address")
	}
}

func TestFromOrderSpecialInstructions(t *testing.T) {
	o := validOrder()
	o.Items = []OrderItem{
		{Quantity: 1, Name: "Jollof Rice", Instructions: "extra spicy", LinePrice: decimal.NewFromInt(2500)},
		{Quantity: 1, Name: "Moi Moi", LinePrice: decimal.NewFromInt(1500)},
		{Quantity: 1, Name: "Chin Chin", Instructions: "no sugar", LinePrice: decimal.NewFromInt(1000)},
	}

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}

	want := []string{"Jollof Rice: extra spicy", "Chin Chin: no sugar"}
	if len(r.SpecialInstructions) != len(want) {
		t.Fatalf("expected %d instructions, got %d", len(want), len(r.SpecialInstructions))
	}
	for i := range want {
		if r.SpecialInstructions[i] != want[i] {
			t.Errorf("instruction %d: expected %q, got %q", i, want[i], r.SpecialInstructions[i])
		}
	}
}

func TestFromOrderToleratesPricingMismatch(t *testing.T) {
	o := validOrder()
	o.Total = decimal.NewFromInt(9999)

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("pricing mismatch must not reject the order: %v", err)
	}
	if !r.Total.Equal(decimal.NewFromInt(9999)) {
		t.Errorf("order's own total must stay authoritative, got %s", r.Total)
	}
}

func TestFromOrderClampsQuantity(t *testing.T) {
	o := validOrder()
	o.Items[0].Quantity = 0

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}
	if r.Items[0].Quantity != 1 {
		t.Errorf("expected quantity clamped to 1, got %d", r.Items[0].Quantity)
	}
}

func TestFromOrderPrepTime(t *testing.T) {
	o := validOrder()
	o.PrepTimeMins = 25

	r, err := FromOrder(o)
	if err != nil {
		t.Fatalf("FromOrder failed: %v", err)
	}
	if r.PrepTime != "25 mins" {
		t.Errorf("unexpected prep time: %q", r.PrepTime)
	}
}
