package receipt

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "delivery"
	OrderTypeCarryout OrderType = "carryout"
)

// Order is the upstream order record as produced by the checkout workflow.
type Order struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Type          OrderType       `json:"order_type"`
	CreatedAt     time.Time       `json:"created_at"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	AltPhone      string          `json:"alt_phone,omitempty"`
	Address       *Address        `json:"address,omitempty"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Tax           decimal.Decimal `json:"tax"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"payment_status"`
	PaymentMethod string          `json:"payment_method"`
	PrepTimeMins  int             `json:"prep_time_mins,omitempty"`
}

type Address struct {
	Street       string `json:"street"`
	City         string `json:"city"`
	Kind         string `json:"kind,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type OrderItem struct {
	Quantity     int             `json:"quantity"`
	Name         string          `json:"name"`
	Variation    string          `json:"variation,omitempty"`
	Addons       []string        `json:"addons,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
	LinePrice    decimal.Decimal `json:"line_price"`
}

// ReceiptData is an immutable snapshot of everything needed to render one
// receipt. Built once per print request and embedded in the queued job.
type ReceiptData struct {
	OrderID             string          `json:"order_id"`
	OrderNumber         string          `json:"order_number"`
	Date                string          `json:"date"`
	Time                string          `json:"time"`
	OrderType           OrderType       `json:"order_type"`
	CustomerName        string          `json:"customer_name"`
	Phone               string          `json:"phone"`
	AltPhone            string          `json:"alt_phone,omitempty"`
	Delivery            *Address        `json:"delivery,omitempty"`
	Items               []ReceiptItem   `json:"items"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	DeliveryFee         decimal.Decimal `json:"delivery_fee"`
	Tax                 decimal.Decimal `json:"tax"`
	Discount            decimal.Decimal `json:"discount"`
	Total               decimal.Decimal `json:"total"`
	PaymentStatus       string          `json:"payment_status"`
	PaymentMethod       string          `json:"payment_method"`
	PrepTime            string          `json:"prep_time,omitempty"`
	SpecialInstructions []string        `json:"special_instructions,omitempty"`
}

type ReceiptItem struct {
	Quantity     int             `json:"quantity"`
	Name         string          `json:"name"`
	Variation    string          `json:"variation,omitempty"`
	Addons       []string        `json:"addons,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
	LinePrice    decimal.Decimal `json:"line_price"`
}

// MissingFieldError reports an order that cannot produce a receipt. No job
// is enqueued for such an order.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("order is missing required field %q", e.Field)
}

const (
	dateLayout = "Jan 2, 2006"
	timeLayout = "3:04 PM"
)

// FromOrder builds the receipt snapshot for an order. A pricing mismatch is
// logged but never rejected; the order's own total stays authoritative.
func FromOrder(o *Order) (*ReceiptData, error) {
	switch {
	case o.ID == "":
		return nil, &MissingFieldError{Field: "id"}
	case o.OrderNumber == "":
		return nil, &MissingFieldError{Field: "order_number"}
	case o.CustomerName == "":
		return nil, &MissingFieldError{Field: "customer_name"}
	case o.CustomerPhone == "":
		return nil, &MissingFieldError{Field: "customer_phone"}
	case len(o.Items) == 0:
		return nil, &MissingFieldError{Field: "items"}
	}

	orderType := o.Type
	if orderType == "" {
		orderType = OrderTypeCarryout
	}

	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	computed := o.Subtotal.Add(o.DeliveryFee).Add(o.Tax).Sub(o.Discount)
	if !computed.Equal(o.Total) {
		log.Printf("[receipt] pricing mismatch on order %s: subtotal+fee+tax-discount=%s, total=%s",
			o.OrderNumber, computed.StringFixed(2), o.Total.StringFixed(2))
	}

	r := &ReceiptData{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		Date:          createdAt.Format(dateLayout),
		Time:          createdAt.Format(timeLayout),
		OrderType:     orderType,
		CustomerName:  o.CustomerName,
		Phone:         o.CustomerPhone,
		AltPhone:      o.AltPhone,
		Items:         make([]ReceiptItem, 0, len(o.Items)),
		Subtotal:      o.Subtotal,
		DeliveryFee:   o.DeliveryFee,
		Tax:           o.Tax,
		Discount:      o.Discount,
		Total:         o.Total,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
	}

	if orderType == OrderTypeDelivery && o.Address != nil {
		addr := *o.Address
		r.Delivery = &addr
	}

	if o.PrepTimeMins > 0 {
		r.PrepTime = fmt.Sprintf("%d mins", o.PrepTimeMins)
	}

	for _, item := range o.Items {
		qty := item.Quantity
		if qty < 1 {
			qty = 1
		}
		ri := ReceiptItem{
			Quantity:     qty,
			Name:         item.Name,
			Variation:    item.Variation,
			Instructions: item.Instructions,
			LinePrice:    item.LinePrice,
		}
		if len(item.Addons) > 0 {
			ri.Addons = append([]string(nil), item.Addons...)
		}
		r.Items = append(r.Items, ri)

		if item.Instructions != "" {
			r.SpecialInstructions = append(r.SpecialInstructions,
				fmt.Sprintf("%s: %s", item.Name, item.Instructions))
		}
	}

	return r, nil
}
