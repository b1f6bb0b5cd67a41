package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct() *Product {
	return &Product{
		ID:            "p1",
		Name:          "Desk Lamp",
		OriginalPrice: decimal.NewFromInt(200),
		FloorPrice:    decimal.NewFromInt(150),
		Inventory:     20,
	}
}

func TestNegotiation_ApplyOffer(t *testing.T) {
	now := time.Now()
	p := testProduct()
	n := NewNegotiation("n1", p.ID, now)

	require.NoError(t, n.ApplyOffer(decimal.NewFromInt(200), p, now))
	require.NoError(t, n.ApplyOffer(decimal.NewFromInt(194), p, now))
	assert.True(t, n.CurrentOffer.Decimal.Equal(decimal.NewFromInt(194)))

	t.Run("Fail on increase", func(t *testing.T) {
		err := n.ApplyOffer(decimal.NewFromInt(195), p, now)
		assert.ErrorIs(t, err, ErrOfferIncrease)
		assert.True(t, n.CurrentOffer.Decimal.Equal(decimal.NewFromInt(194)))
	})

	t.Run("Fail below floor", func(t *testing.T) {
		assert.ErrorIs(t, n.ApplyOffer(decimal.NewFromInt(149), p, now), ErrOfferOutOfBounds)
	})

	t.Run("Fail above original", func(t *testing.T) {
		fresh := NewNegotiation("n2", p.ID, now)
		assert.ErrorIs(t, fresh.ApplyOffer(decimal.NewFromInt(201), p, now), ErrOfferOutOfBounds)
	})
}

func TestNegotiation_Accept(t *testing.T) {
	now := time.Now()
	p := testProduct()

	t.Run("Nothing to accept", func(t *testing.T) {
		n := NewNegotiation("n1", p.ID, now)
		assert.ErrorIs(t, n.Accept("ORDER1", now), ErrNothingToAccept)
		assert.Equal(t, StatusActive, n.Status)
		assert.False(t, n.FinalPrice.Valid)
	})

	t.Run("Success", func(t *testing.T) {
		n := NewNegotiation("n1", p.ID, now)
		require.NoError(t, n.ApplyOffer(decimal.NewFromInt(180), p, now))
		require.NoError(t, n.Accept("ORDER1", now))
		assert.Equal(t, StatusAccepted, n.Status)
		assert.True(t, n.FinalPrice.Decimal.Equal(n.CurrentOffer.Decimal))
		require.NotNil(t, n.OrderID)
		assert.Equal(t, "ORDER1", *n.OrderID)

		assert.ErrorIs(t, n.Accept("ORDER2", now), ErrInvalidTransition)
		assert.ErrorIs(t, n.Expire(now), ErrInvalidTransition)
		assert.ErrorIs(t, n.ApplyOffer(decimal.NewFromInt(170), p, now), ErrInvalidTransition)
	})
}

func TestNegotiation_Expiry(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n := NewNegotiation("n1", "p1", start)

	assert.False(t, n.IsIdle(start.Add(10*time.Minute), time.Hour))
	assert.True(t, n.IsIdle(start.Add(2*time.Hour), time.Hour))
	assert.False(t, n.IsIdle(start.Add(2*time.Hour), 0))

	require.NoError(t, n.Expire(start.Add(2*time.Hour)))
	assert.Equal(t, StatusExpired, n.Status)
	assert.False(t, n.IsIdle(start.Add(3*time.Hour), time.Hour))
}

func TestProduct_Validate(t *testing.T) {
	assert.NoError(t, testProduct().Validate())

	p := testProduct()
	p.FloorPrice = decimal.NewFromInt(250)
	assert.ErrorIs(t, p.Validate(), ErrInvalidTerms)

	p = testProduct()
	p.Inventory = -1
	assert.ErrorIs(t, p.Validate(), ErrInvalidTerms)
}

func TestRoundFor(t *testing.T) {
	assert.Equal(t, 1, RoundFor(0))
	assert.Equal(t, 4, RoundFor(3))
}
