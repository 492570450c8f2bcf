// Package pricing computes line values for price table entries, return notes
// and proposals. All arithmetic is decimal; results are rounded to cents.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DiscountKind selects how a discount amount is applied to the unit price.
type DiscountKind string

const (
	// DiscountPercent reduces the price by a percentage.
	DiscountPercent DiscountKind = "percentual"
	// DiscountFlat subtracts a currency amount from the price.
	DiscountFlat DiscountKind = "valor"
)

// ParseDiscountKind validates a wire value. An empty value means percentage,
// matching the table editor default.
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch DiscountKind(s) {
	case "", DiscountPercent:
		return DiscountPercent, nil
	case DiscountFlat:
		return DiscountFlat, nil
	default:
		return "", fmt.Errorf("pricing: unknown discount kind %q", s)
	}
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Line is the pricing input for one catalog entry. Zero values mean absent.
type Line struct {
	UnitPrice    decimal.Decimal
	Quantity     decimal.Decimal
	TaxPercent   decimal.Decimal
	Discount     decimal.Decimal
	DiscountKind DiscountKind
}

// NewLine builds a Line from the float64 values carried by the domain models.
func NewLine(unitPrice, quantity, taxPercent, discount float64, kind DiscountKind) Line {
	return Line{
		UnitPrice:    decimal.NewFromFloat(unitPrice),
		Quantity:     decimal.NewFromFloat(quantity),
		TaxPercent:   decimal.NewFromFloat(taxPercent),
		Discount:     decimal.NewFromFloat(discount),
		DiscountKind: kind,
	}
}

// EffectiveUnitPrice applies the tax surcharge and then the discount. The
// order is fixed: surcharge first, discount second. The result is never
// negative.
func EffectiveUnitPrice(l Line) decimal.Decimal {
	price := l.UnitPrice
	if !price.IsPositive() {
		return decimal.Zero
	}
	if l.TaxPercent.IsPositive() {
		price = price.Mul(one.Add(l.TaxPercent.Div(hundred)))
	}
	return applyDiscount(price, l.Discount, l.DiscountKind)
}

// LineTotal is the effective unit price times quantity, rounded to cents.
// Absent quantity or unit price yields zero.
func LineTotal(l Line) decimal.Decimal {
	if !l.Quantity.IsPositive() {
		return decimal.Zero
	}
	return EffectiveUnitPrice(l).Mul(l.Quantity).Round(2)
}

// Sum adds the line totals of all lines. Documents and generated proposals
// use it for their grand total so that the total always equals the sum of
// the rows shown.
func Sum(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l))
	}
	return total
}

// ProposalTotal is the proposal form variant: unit price adjusted by the
// discount, times quantity. The IPI surcharge is handled separately on the
// order document.
func ProposalTotal(unitPrice, quantity, discount decimal.Decimal, kind DiscountKind) decimal.Decimal {
	if !unitPrice.IsPositive() || !quantity.IsPositive() {
		return decimal.Zero
	}
	return applyDiscount(unitPrice, discount, kind).Mul(quantity).Round(2)
}

// OrderTotals holds the figures printed on an order document.
type OrderTotals struct {
	UnitWithTax decimal.Decimal
	Subtotal    decimal.Decimal
	Freight     decimal.Decimal
	Total       decimal.Decimal
}

// OrderTotal computes unit*(1+ipi/100)*quantity plus freight.
func OrderTotal(unitPrice, quantity, taxPercent, freight decimal.Decimal) OrderTotals {
	unit := decimal.Zero
	if unitPrice.IsPositive() {
		unit = unitPrice
		if taxPercent.IsPositive() {
			unit = unit.Mul(one.Add(taxPercent.Div(hundred)))
		}
	}
	subtotal := decimal.Zero
	if quantity.IsPositive() {
		subtotal = unit.Mul(quantity).Round(2)
	}
	if freight.IsNegative() {
		freight = decimal.Zero
	}
	return OrderTotals{
		UnitWithTax: unit.Round(2),
		Subtotal:    subtotal,
		Freight:     freight.Round(2),
		Total:       subtotal.Add(freight).Round(2),
	}
}

func applyDiscount(price, discount decimal.Decimal, kind DiscountKind) decimal.Decimal {
	if discount.IsPositive() {
		switch kind {
		case DiscountFlat:
			price = price.Sub(discount)
		default:
			price = price.Mul(one.Sub(discount.Div(hundred)))
		}
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}
