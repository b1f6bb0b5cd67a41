package prose

import (
	"fmt"

	"github.com/shopspring/decimal"

	"negotiation-backend/pkg/pricing"
)

// Fallback renders a deterministic reply for the given decision. It is used whenever
// the generation service is unavailable.
func Fallback(productName string, decision pricing.DecisionKind, offer, previous decimal.NullDecimal) string {
	if !offer.Valid {
		if previous.Valid {
			return fmt.Sprintf("Happy to help with anything about the %s. Our current offer of $%s still stands.",
				productName, previous.Decimal.StringFixed(2))
		}
		return fmt.Sprintf("I understand you're interested in the %s. Feel free to make an offer!", productName)
	}

	price := offer.Decimal.StringFixed(2)
	switch decision {
	case pricing.DecisionAccept:
		return fmt.Sprintf("Great offer! I can do $%s for the %s. Reply \"deal\" to confirm your order.", price, productName)
	case pricing.DecisionCounter:
		return fmt.Sprintf("I appreciate your offer. How about we meet at $%s for the %s?", price, productName)
	}
	if previous.Valid && offer.Decimal.Equal(previous.Decimal) {
		return fmt.Sprintf("$%s is the best price I can give on the %s right now.", price, productName)
	}
	if !previous.Valid {
		return fmt.Sprintf("The %s is priced at $%s, and it's well worth it. What would you like to offer?", productName, price)
	}
	return fmt.Sprintf("I can bring the %s down to $%s for you.", productName, price)
}

// Welcome opens a new negotiation anchored at the original price.
func Welcome(productName string, originalPrice decimal.Decimal) string {
	return fmt.Sprintf("Hello! I see you're interested in the %s priced at $%s. I'm here to help you get the best deal. What would you like to offer?",
		productName, originalPrice.StringFixed(2))
}

// Confirmation is shown once the shopper accepts an offer.
func Confirmation(productName string, finalPrice decimal.Decimal, orderID string) string {
	return fmt.Sprintf("Your order for %s has been confirmed!\nFinal Price: $%s\nOrder ID: %s\n\nThank you for your business!",
		productName, finalPrice.StringFixed(2), orderID)
}

// Closed answers messages sent to a negotiation that has already ended.
func Closed(productName string, finalPrice decimal.NullDecimal) string {
	if finalPrice.Valid {
		return fmt.Sprintf("This negotiation is complete: the %s was confirmed at $%s.", productName, finalPrice.Decimal.StringFixed(2))
	}
	return fmt.Sprintf("This negotiation for the %s has expired. Please start a new one.", productName)
}
