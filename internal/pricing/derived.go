package pricing

import "github.com/shopspring/decimal"

// DerivedTotal is the proposal value as shown on the proposal form. While
// unit price and quantity are both present the value is computed and Locked;
// otherwise the manually entered value is kept.
type DerivedTotal struct {
	Value  decimal.Decimal
	Locked bool
}

// Derive resolves the proposal value. A manual value is only honoured when
// the total cannot be computed, so editing quantity after typing a value
// always recomputes instead of silently keeping a stale number.
func Derive(unitPrice, quantity, discount decimal.Decimal, kind DiscountKind, manual decimal.Decimal) DerivedTotal {
	if unitPrice.IsPositive() && quantity.IsPositive() {
		return DerivedTotal{Value: ProposalTotal(unitPrice, quantity, discount, kind), Locked: true}
	}
	if manual.IsNegative() {
		manual = decimal.Zero
	}
	return DerivedTotal{Value: manual.Round(2), Locked: false}
}
