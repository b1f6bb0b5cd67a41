package pricing

import "github.com/shopspring/decimal"

type Reconciliation struct {
	// Message is the generated prose, shown unchanged.
	Message string
	// Offer is what gets persisted for the turn.
	Offer decimal.NullDecimal
	// Extracted is the figure found in the prose, if any.
	Extracted decimal.NullDecimal
	// Drift is set when the prose quotes a figure other than the authoritative one.
	Drift bool
}

// Reconcile checks generated prose against the engine's authoritative offer. The
// authoritative value always wins and is clamped to [floor, previous].
func Reconcile(prose string, authoritative decimal.NullDecimal, floor decimal.Decimal, previous decimal.NullDecimal) Reconciliation {
	r := Reconciliation{Message: prose}
	if amount, ok := ExtractPrice(prose); ok {
		r.Extracted = decimal.NewNullDecimal(amount)
	}

	if !authoritative.Valid {
		// informational turn: any figure other than the standing offer is drift
		r.Drift = r.Extracted.Valid && (!previous.Valid || !r.Extracted.Decimal.Equal(previous.Decimal))
		return r
	}

	offer := authoritative.Decimal
	r.Drift = r.Extracted.Valid && !r.Extracted.Decimal.Equal(offer)
	if previous.Valid && offer.GreaterThan(previous.Decimal) {
		offer = previous.Decimal
	}
	if offer.LessThan(floor) {
		offer = floor
	}
	r.Offer = decimal.NewNullDecimal(offer.Round(2))
	return r
}
