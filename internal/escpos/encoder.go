package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

// Width is the logical line width in characters: 80mm paper at the default
// font A prints 48 columns.
const Width = 48

const (
	headerText    = "JOLLOF EXPRESS"
	thankYouText  = "Thank You!"
	footerLine1   = "We hope to serve you again soon."
	footerLine2   = "www.jollofexpress.ng"
	specialsLabel = "!! SPECIAL INSTRUCTIONS !!"
)

// Encoder turns a receipt snapshot into the printer's binary control
// protocol. It performs no I/O; malformed input panics and the caller
// decides what to do with that.
type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode produces the full byte sequence for one receipt, framed by the
// initialization sequence and the paper-cut command.
func (e *Encoder) Encode(r *receipt.ReceiptData) []byte {
	if r == nil {
		panic("escpos: nil receipt")
	}

	b := &builder{}

	b.raw(Initialize)
	b.raw(CharsetUSA)
	b.raw(CodePage437)
	b.raw(LineSpacing)

	// Header
	b.raw(AlignCenter)
	b.raw(SizeLarge)
	b.textln(headerText)
	b.raw(SizeNormal)
	b.textln(line('=', Width))

	// Order number and timestamp
	b.raw(BoldOn)
	b.raw(SizeLarge)
	b.textln(fmt.Sprintf("ORDER #%s", r.OrderNumber))
	b.raw(SizeNormal)
	b.raw(BoldOff)
	b.raw(AlignLeft)
	b.textln(fmt.Sprintf("%s  %s", r.Date, r.Time))
	b.textln(line('-', Width))

	e.customerBlock(b, r)

	if r.OrderType == receipt.OrderTypeDelivery && r.Delivery != nil {
		e.deliveryBlock(b, r.Delivery)
	}

	b.textln(line('-', Width))
	b.raw(BoldOn)
	b.textln("ITEMS")
	b.raw(BoldOff)
	b.textln(line('-', Width))

	for _, item := range r.Items {
		e.itemBlock(b, &item)
	}

	if len(r.SpecialInstructions) > 0 {
		b.textln(line('-', Width))
		b.raw(BoldOn)
		b.textln(specialsLabel)
		b.raw(BoldOff)
		for _, instruction := range r.SpecialInstructions {
			b.textln("  * " + instruction)
		}
	}

	b.textln(line('-', Width))
	e.pricingBlock(b, r)

	e.paymentBlock(b, r)

	b.textln(line('-', Width))
	if r.PrepTime != "" {
		b.raw(AlignCenter)
		b.textln(fmt.Sprintf("Est. Prep Time: %s", r.PrepTime))
		b.raw(AlignLeft)
		b.textln(line('-', Width))
	}

	// Footer
	b.raw(AlignCenter)
	b.raw(BoldOn)
	b.textln(thankYouText)
	b.raw(BoldOff)
	b.textln(footerLine1)
	b.textln(footerLine2)

	b.text("\n\n\n")
	b.raw(CutPaper)

	return b.bytes()
}

func (e *Encoder) customerBlock(b *builder, r *receipt.ReceiptData) {
	b.labeled("Customer: ", r.CustomerName)
	b.labeled("Phone: ", r.Phone)
	if r.AltPhone != "" {
		b.labeled("Alt Phone: ", r.AltPhone)
	}
	b.labeled("Order Type: ", strings.ToUpper(string(r.OrderType)))
}

func (e *Encoder) deliveryBlock(b *builder, addr *receipt.Address) {
	b.raw(BoldOn)
	b.textln("DELIVER TO:")
	b.raw(BoldOff)
	if addr.City != "" {
		b.labeled("City: ", addr.City)
	}
	b.labeled("Address: ", addr.Street)
	if addr.Kind != "" {
		b.labeled("Type: ", addr.Kind)
	}
	if addr.Unit != "" {
		b.labeled("Unit: ", addr.Unit)
	}
	if addr.Instructions != "" {
		b.raw(BoldOn)
		b.textln("Instructions:")
		b.raw(BoldOff)
		b.textln("  " + addr.Instructions)
	}
}

func (e *Encoder) itemBlock(b *builder, item *receipt.ReceiptItem) {
	b.textln(fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	if item.Variation != "" {
		b.textln("   - " + item.Variation)
	}
	if len(item.Addons) > 0 {
		b.textln("   - " + strings.Join(item.Addons, ", "))
	}
	b.textln(padRight("", receipt.FormatNaira(item.LinePrice), Width))
	b.textln("")
}

func (e *Encoder) pricingBlock(b *builder, r *receipt.ReceiptData) {
	b.textln(padRight("Subtotal", receipt.FormatNaira(r.Subtotal), Width))
	if r.DeliveryFee.IsPositive() {
		b.textln(padRight("Delivery Fee", receipt.FormatNaira(r.DeliveryFee), Width))
	}
	if !r.Tax.IsZero() {
		b.textln(padRight("Tax", receipt.FormatNaira(r.Tax), Width))
	}
	if r.Discount.IsPositive() {
		b.textln(padRight("Discount", "-"+receipt.FormatNaira(r.Discount), Width))
	}
	b.textln(line('=', Width))
	b.raw(BoldOn)
	b.raw(SizeDoubleHeight)
	b.textln(padRight("TOTAL", receipt.FormatNaira(r.Total), Width))
	b.raw(SizeNormal)
	b.raw(BoldOff)
	b.textln(line('=', Width))
}

func (e *Encoder) paymentBlock(b *builder, r *receipt.ReceiptData) {
	payment := r.PaymentStatus
	if r.PaymentMethod != "" {
		payment = fmt.Sprintf("%s (%s)", payment, r.PaymentMethod)
	}
	b.labeled("Payment: ", payment)
}

// padRight lays out a left and a right fragment on one physical line. It
// never truncates; when the fragments overflow the width they are separated
// by a single space and the line wraps on the printer.
func padRight(left, right string, width int) string {
	spacing := width - len(left) - len(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}

// line produces a full-width rule of a repeated character.
func line(char byte, width int) string {
	return strings.Repeat(string(char), width)
}

type builder struct {
	buf bytes.Buffer
}

func (b *builder) raw(cmd []byte) {
	b.buf.Write(cmd)
}

func (b *builder) text(s string) {
	b.buf.WriteString(s)
}

func (b *builder) textln(s string) {
	b.buf.WriteString(s)
	b.buf.WriteByte('\n')
}

// labeled prints a bold label followed by a plain value.
func (b *builder) labeled(label, value string) {
	b.raw(BoldOn)
	b.text(label)
	b.raw(BoldOff)
	b.textln(value)
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}
