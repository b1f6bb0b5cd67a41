package prose

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"negotiation-backend/pkg/pricing"
)

func TestBuildPrompt_QuotesOnlyAuthoritativeFigure(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		ProductName:    "Desk Lamp",
		OriginalPrice:  decimal.NewFromInt(200),
		Inventory:      20,
		PreviousOffer:  decimal.NewNullDecimal(decimal.NewFromInt(200)),
		Offer:          decimal.NewNullDecimal(decimal.RequireFromString("194")),
		Decision:       pricing.DecisionDiscount,
		ShopperMessage: "any discount?",
		History:        []HistoryLine{{Sender: "Seller", Content: "Hello!"}},
	})

	assert.Contains(t, prompt, "Desk Lamp")
	assert.Contains(t, prompt, "$200.00")
	assert.Contains(t, prompt, "exactly $194.00")
	assert.Contains(t, prompt, "- Seller: Hello!")
	assert.Contains(t, prompt, `"any discount?"`)
}

func TestBuildPrompt_WithholdsPricing(t *testing.T) {
	prompt := BuildPrompt(PromptInput{
		ProductName:    "Desk Lamp",
		OriginalPrice:  decimal.NewFromInt(200),
		ShopperMessage: "does it ship to Canada?",
	})
	assert.Contains(t, prompt, "Do NOT propose or mention any new price")
	assert.NotContains(t, prompt, "exactly $")
}

func TestFallback_QuotesTheOffer(t *testing.T) {
	offer := decimal.NewNullDecimal(decimal.RequireFromString("189.15"))
	previous := decimal.NewNullDecimal(decimal.RequireFromString("194"))

	for _, kind := range []pricing.DecisionKind{pricing.DecisionAccept, pricing.DecisionCounter, pricing.DecisionDiscount} {
		msg := Fallback("Desk Lamp", kind, offer, previous)
		got, ok := pricing.ExtractPrice(msg)
		assert.True(t, ok, msg)
		assert.True(t, got.Equal(offer.Decimal), msg)
	}
}

func TestFallback_Informational(t *testing.T) {
	msg := Fallback("Desk Lamp", pricing.DecisionNone, decimal.NullDecimal{}, decimal.NullDecimal{})
	_, ok := pricing.ExtractPrice(msg)
	assert.False(t, ok)

	msg = Fallback("Desk Lamp", pricing.DecisionNone, decimal.NullDecimal{}, decimal.NewNullDecimal(decimal.NewFromInt(180)))
	assert.Contains(t, msg, "$180.00")
}

func TestConfirmationAndWelcome(t *testing.T) {
	msg := Confirmation("Desk Lamp", decimal.RequireFromString("185.37"), "AB12CD34")
	assert.Contains(t, msg, "$185.37")
	assert.Contains(t, msg, "AB12CD34")

	assert.Contains(t, Welcome("Desk Lamp", decimal.NewFromInt(200)), "$200.00")
	assert.Contains(t, Closed("Desk Lamp", decimal.NullDecimal{}), "expired")
}
