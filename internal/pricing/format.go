package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,50".
func FormatBRL(v decimal.Decimal) string {
	return "R$ " + brPrinter.Sprintf("%.2f", v.Round(2).InexactFloat64())
}

// FormatQuantity renders a quantity with pt-BR separators and no trailing zeros.
func FormatQuantity(v decimal.Decimal) string {
	s := brPrinter.Sprintf("%.3f", v.Round(3).InexactFloat64())
	if strings.Contains(s, ",") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ",")
	}
	return s
}

// FormatPercent renders a percentage such as "18%" or "7,5%".
func FormatPercent(v decimal.Decimal) string {
	return FormatQuantity(v) + "%"
}
