package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Sender string

const (
	SenderShopper Sender = "shopper"
	SenderEngine  Sender = "engine"
)

// Turn is one append-only entry in a negotiation's history.
type Turn struct {
	ID            string              `json:"id" db:"id"`
	NegotiationID string              `json:"negotiation_id" db:"negotiation_id"`
	Sender        Sender              `json:"sender" db:"sender"`
	Content       string              `json:"content" db:"content"`
	OfferAmount   decimal.NullDecimal `json:"offer_amount" db:"offer_amount"`
	Category      string              `json:"category,omitempty" db:"category"` // classifier output, shopper turns only
	Decision      string              `json:"decision,omitempty" db:"decision"` // calculator output, engine turns only
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
}
