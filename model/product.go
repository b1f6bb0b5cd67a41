package model

import "github.com/shopspring/decimal"

// Product holds the terms a negotiation runs against. They never change during a session.
type Product struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	OriginalPrice decimal.Decimal `json:"original_price" db:"original_price"`
	FloorPrice    decimal.Decimal `json:"-" db:"floor_price"` // never exposed to shoppers
	Inventory     int             `json:"inventory" db:"inventory"`
}

func (p *Product) Validate() error {
	if !p.OriginalPrice.IsPositive() || !p.FloorPrice.IsPositive() {
		return ErrInvalidTerms
	}
	if p.FloorPrice.GreaterThan(p.OriginalPrice) {
		return ErrInvalidTerms
	}
	if p.Inventory < 0 {
		return ErrInvalidTerms
	}
	return nil
}
