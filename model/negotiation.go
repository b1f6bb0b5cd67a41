package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusAccepted Status = "accepted"
	StatusExpired  Status = "expired"
)

// Negotiation is the per-conversation record the engine reads and advances.
//
// Invariants: FloorPrice <= CurrentOffer <= OriginalPrice, CurrentOffer never increases,
// and FinalPrice is set exactly when Status is accepted.
type Negotiation struct {
	ID           string              `json:"id" db:"id"`
	ProductID    string              `json:"product_id" db:"product_id"`
	Status       Status              `json:"status" db:"status"`
	CurrentOffer decimal.NullDecimal `json:"current_offer" db:"current_offer"`
	FinalPrice   decimal.NullDecimal `json:"final_price" db:"final_price"`
	OrderID      *string             `json:"order_id,omitempty" db:"order_id"`
	Version      int                 `json:"version" db:"version"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

func NewNegotiation(id, productID string, now time.Time) *Negotiation {
	return &Negotiation{
		ID:        id,
		ProductID: productID,
		Status:    StatusActive,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplyOffer records a new authoritative offer. It refuses anything that would break
// the price bounds or take back a discount already extended.
func (n *Negotiation) ApplyOffer(amount decimal.Decimal, p *Product, now time.Time) error {
	if n.Status != StatusActive {
		return ErrInvalidTransition
	}
	if amount.LessThan(p.FloorPrice) || amount.GreaterThan(p.OriginalPrice) {
		return ErrOfferOutOfBounds
	}
	if n.CurrentOffer.Valid && amount.GreaterThan(n.CurrentOffer.Decimal) {
		return ErrOfferIncrease
	}
	n.CurrentOffer = decimal.NewNullDecimal(amount)
	n.UpdatedAt = now
	return nil
}

// Accept finalizes the session at the current offer.
func (n *Negotiation) Accept(orderID string, now time.Time) error {
	if n.Status != StatusActive {
		return ErrInvalidTransition
	}
	if !n.CurrentOffer.Valid {
		return ErrNothingToAccept
	}
	n.Status = StatusAccepted
	n.FinalPrice = n.CurrentOffer
	n.OrderID = &orderID
	n.UpdatedAt = now
	return nil
}

// Expire closes a session the shopper walked away from.
func (n *Negotiation) Expire(now time.Time) error {
	if n.Status != StatusActive {
		return ErrInvalidTransition
	}
	n.Status = StatusExpired
	n.UpdatedAt = now
	return nil
}

func (n *Negotiation) IsIdle(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && n.Status == StatusActive && now.Sub(n.UpdatedAt) > ttl
}

// RoundFor derives the round number from the count of prior shopper turns.
func RoundFor(priorShopperTurns int) int {
	return priorShopperTurns + 1
}
