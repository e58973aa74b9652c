package render

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"github.com/resocorp/jollofexpress-sub000/internal/receipt"
)

// Renderer produces an alternate representation of the same receipt
// snapshot the protocol encoder consumes. The browser fallback and the
// raster path both sit behind this interface; neither touches the queue.
type Renderer interface {
	Render(r *receipt.ReceiptData) ([]byte, error)
	ContentType() string
}

var receiptFuncs = template.FuncMap{
	"naira": func(d decimal.Decimal) string {
		return receipt.FormatNaira(d)
	},
	"upper": func(s string) string {
		out := make([]byte, len(s))
		for i := 0; i < len(s); i++ {
			c := s[i]
			if c >= 'a' && c <= 'z' {
				c -= 'a' - 'A'
			}
			out[i] = c
		}
		return string(out)
	},
}

var receiptTemplate = template.Must(template.New("receipt").Funcs(receiptFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: 'Courier New', monospace; width: 300px; margin: 0 auto; font-size: 12px; }
  .center { text-align: center; }
  .header { font-size: 20px; font-weight: bold; }
  .rule { border-top: 1px dashed #000; margin: 4px 0; }
  .major { border-top: 2px solid #000; margin: 4px 0; }
  .row { display: flex; justify-content: space-between; }
  .total { font-size: 16px; font-weight: bold; }
  .bold { font-weight: bold; }
  .indent { padding-left: 12px; }
</style>
</head>
<body>
<div class="center header">JOLLOF EXPRESS</div>
<div class="major"></div>
<div class="center bold">ORDER #{{.OrderNumber}}</div>
<div>{{.Date}} {{.Time}}</div>
<div class="rule"></div>
<div><span class="bold">Customer:</span> {{.CustomerName}}</div>
<div><span class="bold">Phone:</span> {{.Phone}}</div>
{{- if .AltPhone}}
<div><span class="bold">Alt Phone:</span> {{.AltPhone}}</div>
{{- end}}
<div><span class="bold">Order Type:</span> {{upper (printf "%s" .OrderType)}}</div>
{{- if .Delivery}}
<div class="bold">DELIVER TO:</div>
{{- if .Delivery.City}}<div>{{.Delivery.City}}</div>{{end}}
<div>{{.Delivery.Street}}</div>
{{- if .Delivery.Unit}}<div>Unit: {{.Delivery.Unit}}</div>{{end}}
{{- if .Delivery.Instructions}}<div class="indent">{{.Delivery.Instructions}}</div>{{end}}
{{- end}}
<div class="rule"></div>
<div class="bold">ITEMS</div>
<div class="rule"></div>
{{- range .Items}}
<div>{{.Quantity}}x {{.Name}}</div>
{{- if .Variation}}<div class="indent">- {{.Variation}}</div>{{end}}
{{- if .Addons}}<div class="indent">- {{range $i, $a := .Addons}}{{if $i}}, {{end}}{{$a}}{{end}}</div>{{end}}
<div class="row"><span></span><span>{{naira .LinePrice}}</span></div>
{{- end}}
{{- if .SpecialInstructions}}
<div class="rule"></div>
<div class="bold">!! SPECIAL INSTRUCTIONS !!</div>
{{- range .SpecialInstructions}}
<div class="indent">* {{.}}</div>
{{- end}}
{{- end}}
<div class="rule"></div>
<div class="row"><span>Subtotal</span><span>{{naira .Subtotal}}</span></div>
{{- if .DeliveryFee.IsPositive}}
<div class="row"><span>Delivery Fee</span><span>{{naira .DeliveryFee}}</span></div>
{{- end}}
{{- if not .Tax.IsZero}}
<div class="row"><span>Tax</span><span>{{naira .Tax}}</span></div>
{{- end}}
{{- if .Discount.IsPositive}}
<div class="row"><span>Discount</span><span>-{{naira .Discount}}</span></div>
{{- end}}
<div class="major"></div>
<div class="row total"><span>TOTAL</span><span>{{naira .Total}}</span></div>
<div class="major"></div>
<div><span class="bold">Payment:</span> {{.PaymentStatus}}{{if .PaymentMethod}} ({{.PaymentMethod}}){{end}}</div>
{{- if .PrepTime}}
<div class="rule"></div>
<div class="center">Est. Prep Time: {{.PrepTime}}</div>
{{- end}}
<div class="rule"></div>
<div class="center bold">Thank You!</div>
<div class="center">We hope to serve you again soon.</div>
<div class="center">www.jollofexpress.ng</div>
</body>
</html>
`))

// HTMLRenderer renders the receipt as a printable HTML page, used by the
// operator-facing browser print dialog when hardware printing is
// unavailable or undesired.
type HTMLRenderer struct{}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{}
}

func (h *HTMLRenderer) Render(r *receipt.ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to render receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

func (h *HTMLRenderer) ContentType() string {
	return "text/html; charset=utf-8"
}
