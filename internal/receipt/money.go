package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is the marker used on every pricing line of a receipt.
// The thermal font has no glyph for the naira sign, so the ISO code is used.
const CurrencyPrefix = "NGN"

// FormatNaira renders an amount as NGN1,234,567.50: fixed two decimals,
// comma-grouped thousands. Negative amounts carry a leading minus.
func FormatNaira(amount decimal.Decimal) string {
	s := groupThousands(amount.StringFixed(2))
	if strings.HasPrefix(s, "-") {
		return "-" + CurrencyPrefix + s[1:]
	}
	return CurrencyPrefix + s
}

func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	return b.String()
}
