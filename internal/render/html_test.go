package render

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

func sampleReceipt() *receipt.ReceiptData {
	return &receipt.ReceiptData{
		OrderID:      "ord-1",
		OrderNumber:  "1042",
		Date:         "Mar 14, 2025",
		Time:         "1:05 PM",
		OrderType:    receipt.OrderTypeDelivery,
		CustomerName: "Adaeze Obi",
		Phone:        "08031234567",
		Delivery:     &receipt.Address{Street: "12 Allen Avenue", City: "Ikeja"},
		Items: []receipt.ReceiptItem{
			{Quantity: 2, Name: "Jollof Rice", Variation: "Large", Addons: []string{"Plantain"}, LinePrice: decimal.NewFromInt(5000)},
		},
		Subtotal:            decimal.NewFromInt(5000),
		DeliveryFee:         decimal.NewFromInt(500),
		Total:               decimal.NewFromInt(5500),
		PaymentStatus:       "PAID",
		PaymentMethod:       "transfer",
		SpecialInstructions: []string{"Jollof Rice: extra spicy"},
	}
}

func TestHTMLRender(t *testing.T) {
	out, err := NewHTMLRenderer().Render(sampleReceipt())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"JOLLOF EXPRESS",
		"ORDER #1042",
		"Adaeze Obi",
		"DELIVER TO:",
		"12 Allen Avenue",
		"2x Jollof Rice",
		"NGN5,000.00",
		"NGN5,500.00",
		"!! SPECIAL INSTRUCTIONS !!",
		"Jollof Rice: extra spicy",
		"PAID",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered receipt missing %q", want)
		}
	}
}

func TestHTMLRenderOmitsEmptySections(t *testing.T) {
	r := sampleReceipt()
	r.OrderType = receipt.OrderTypeCarryout
	r.Delivery = nil
	r.DeliveryFee = decimal.Zero
	r.SpecialInstructions = nil
	r.Total = decimal.NewFromInt(5000)

	out, err := NewHTMLRenderer().Render(r)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := string(out)

	if strings.Contains(html, "DELIVER TO:") {
		t.Error("carryout receipt must not render a delivery block")
	}
	if strings.Contains(html, "Delivery Fee") {
		t.Error("zero delivery fee must not be rendered")
	}
	if strings.Contains(html, "SPECIAL INSTRUCTIONS") {
		t.Error("empty specials must not be rendered")
	}
}

func TestHTMLRenderEscapesMarkup(t *testing.T) {
	r := sampleReceipt()
	r.CustomerName = `<script>alert("x")</script>`

	out, err := NewHTMLRenderer().Render(r)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if strings.Contains(string(out), "<script>alert") {
		t.Error("customer input must be escaped")
	}
}

func TestContentTypes(t *testing.T) {
	if got := NewHTMLRenderer().ContentType(); !strings.HasPrefix(got, "text/html") {
		t.Errorf("unexpected html content type: %q", got)
	}
	if got := NewRasterRenderer().ContentType(); got != "application/octet-stream" {
		t.Errorf("unexpected raster content type: %q", got)
	}
}
