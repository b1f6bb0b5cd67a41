package pricing

import "github.com/shopspring/decimal"

type DecisionKind string

const (
	DecisionNone     DecisionKind = "none"
	DecisionAccept   DecisionKind = "accept"
	DecisionCounter  DecisionKind = "counter"
	DecisionDiscount DecisionKind = "discount"
)

var (
	one         = decimal.NewFromInt(1)
	acceptRatio = decimal.RequireFromString("0.9")
	gapClose    = decimal.RequireFromString("0.5")

	scarcePct   = decimal.RequireFromString("0.01")
	abundantPct = decimal.RequireFromString("0.05")
	roundPct    = map[int]decimal.Decimal{
		2: decimal.RequireFromString("0.03"),
		3: decimal.RequireFromString("0.025"),
	}
	laterRoundPct = decimal.RequireFromString("0.02")
)

const (
	scarceInventory   = 5
	abundantInventory = 50
)

type OfferInput struct {
	OriginalPrice decimal.Decimal
	FloorPrice    decimal.Decimal
	Round         int
	CurrentOffer  decimal.NullDecimal
	ShopperOffer  decimal.NullDecimal
	Inventory     int
	// Intent is true when the message asked for a discount or used purchase vocabulary.
	Intent bool
}

type Decision struct {
	Kind        DecisionKind
	Amount      decimal.Decimal
	DiscountPct decimal.Decimal
}

func (d Decision) HasOffer() bool {
	return d.Kind != DecisionNone
}

// Offer returns the decision amount as a nullable value, invalid for DecisionNone.
func (d Decision) Offer() decimal.NullDecimal {
	if !d.HasOffer() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d.Amount)
}

// NextOffer computes the next authoritative offer. It is pure; the caller persists the
// result.
func NextOffer(in OfferInput) Decision {
	ask := in.OriginalPrice
	if in.CurrentOffer.Valid {
		ask = in.CurrentOffer.Decimal
	}

	if in.ShopperOffer.Valid && in.ShopperOffer.Decimal.GreaterThanOrEqual(in.FloorPrice) {
		offer := in.ShopperOffer.Decimal
		if offer.GreaterThanOrEqual(ask.Mul(acceptRatio)) {
			return in.clamp(Decision{Kind: DecisionAccept, Amount: decimal.Max(offer, in.FloorPrice)})
		}
		// close half the gap each round so the two sides converge
		counter := offer.Add(gapClose.Mul(ask.Sub(offer)))
		return in.clamp(Decision{Kind: DecisionCounter, Amount: decimal.Max(in.FloorPrice, counter)})
	}

	// A sub-floor counteroffer still counts as negotiating.
	if !in.Intent && !in.ShopperOffer.Valid {
		return Decision{Kind: DecisionNone}
	}
	pct := DiscountPct(in.Round, in.Inventory)
	amount := ask.Mul(one.Sub(pct))
	return in.clamp(Decision{Kind: DecisionDiscount, Amount: decimal.Max(in.FloorPrice, amount), DiscountPct: pct})
}

// DiscountPct is the progressive discount schedule. Round 1 always anchors at the base
// price.
func DiscountPct(round, inventory int) decimal.Decimal {
	switch {
	case round <= 1:
		return decimal.Zero
	case inventory <= scarceInventory:
		return scarcePct
	case inventory > abundantInventory:
		return abundantPct
	}
	if pct, ok := roundPct[round]; ok {
		return pct
	}
	return laterRoundPct
}

// clamp keeps an offer inside [floor, min(original, current)] and rounds it to cents.
func (in OfferInput) clamp(d Decision) Decision {
	upper := in.OriginalPrice
	if in.CurrentOffer.Valid && in.CurrentOffer.Decimal.LessThan(upper) {
		upper = in.CurrentOffer.Decimal
	}
	d.Amount = decimal.Max(decimal.Min(d.Amount, upper), in.FloorPrice).Round(2)
	return d
}
