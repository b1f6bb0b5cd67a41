package prose

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"negotiation-backend/pkg/pricing"
)

type HistoryLine struct {
	Sender  string // "Shopper" or "Seller"
	Content string
}

type PromptInput struct {
	ProductName    string
	Description    string
	OriginalPrice  decimal.Decimal
	Inventory      int
	PreviousOffer  decimal.NullDecimal
	Offer          decimal.NullDecimal // the figure the reply must quote, invalid to withhold pricing
	Decision       pricing.DecisionKind
	ShopperMessage string
	History        []HistoryLine
}

// BuildPrompt assembles the instructions for the generation service. The floor price is
// deliberately absent: the service only ever sees the figure it must quote.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("You are a polite and persuasive sales assistant for an online store, negotiating the price of one product with a shopper.\n\n")
	b.WriteString("**Product:**\n")
	fmt.Fprintf(&b, "- Name: %s\n", in.ProductName)
	if in.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", in.Description)
	}
	fmt.Fprintf(&b, "- Original Price: $%s\n", in.OriginalPrice.StringFixed(2))
	fmt.Fprintf(&b, "- Inventory left: %d\n", in.Inventory)
	if in.PreviousOffer.Valid {
		fmt.Fprintf(&b, "- You previously offered: $%s\n", in.PreviousOffer.Decimal.StringFixed(2))
	}

	if len(in.History) > 0 {
		b.WriteString("\n**Conversation History:**\n")
		for _, h := range in.History {
			fmt.Fprintf(&b, "- %s: %s\n", h.Sender, h.Content)
		}
	}

	fmt.Fprintf(&b, "\n**Current Shopper Message:**\n%q\n\n", in.ShopperMessage)

	b.WriteString("**Instructions:**\n")
	if in.Offer.Valid {
		price := in.Offer.Decimal.StringFixed(2)
		switch in.Decision {
		case pricing.DecisionAccept:
			fmt.Fprintf(&b, "1. Happily agree to $%s and ask the shopper to reply \"deal\" to confirm.\n", price)
		case pricing.DecisionCounter:
			fmt.Fprintf(&b, "1. Thank the shopper for their offer and counter with exactly $%s.\n", price)
		default:
			fmt.Fprintf(&b, "1. Offer the product at exactly $%s.\n", price)
		}
		fmt.Fprintf(&b, "2. The only price you may mention is $%s, written in the format $XXX.XX.\n", price)
	} else {
		b.WriteString("1. Answer the shopper helpfully. Do NOT propose or mention any new price.\n")
		b.WriteString("2. If the shopper wants to talk price, invite them to make an offer.\n")
	}
	b.WriteString("3. Never increase a price you have already offered.\n")
	b.WriteString("4. Never mention a minimum or lowest acceptable price.\n")
	b.WriteString("5. Be warm and professional, and thank the shopper for their interest.\n")
	b.WriteString("6. Reply in at most three sentences of plain text.\n")

	return b.String()
}
