package pricing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryGreeting           Category = "greeting"
	CategoryDiscountRequest    Category = "discount_request"
	CategoryCounteroffer       Category = "counteroffer"
	CategoryAgreement          Category = "agreement"
	CategoryAgreementWithPrice Category = "agreement_with_price"
	CategoryOther              Category = "other"
)

type Classification struct {
	Category Category
	Amount   decimal.NullDecimal
	// PurchaseIntent is set when the text carries buying or pricing vocabulary, which
	// routes an Other message through the offer calculator.
	PurchaseIntent bool
}

// Intent reports whether the message should produce an offer when it carries no
// qualifying counteroffer.
func (c Classification) Intent() bool {
	switch c.Category {
	case CategoryDiscountRequest, CategoryCounteroffer, CategoryAgreementWithPrice:
		return true
	case CategoryOther:
		return c.PurchaseIntent
	}
	return false
}

var (
	affirmations = wordSet(
		"deal", "i agree", "agreed", "confirm", "confirmed", "sounds good", "ok", "okay",
		"yes", "yep", "accept", "accepted", "i'll take it", "i will take it", "done", "sure",
		"let's do it", "works for me",
	)
	discountWords = wordSet(
		"discount", "cheaper", "best price", "better price", "negotiate", "bargain", "lower",
		"reduce", "too expensive", "expensive", "come down", "coupon", "less", "lowest",
		"any offer", "deal on", "knock off", "off",
	)
	purchaseWords = wordSet(
		"buy", "price", "cost", "purchase", "order", "take it", "want it", "how much", "pay",
		"checkout",
	)
	salutations = wordSet(
		"hi", "hello", "hey", "good morning", "good afternoon", "good evening", "greetings",
		"thanks", "thank you",
	)
	infoWords = wordSet(
		"shipping", "ship", "delivery", "deliver", "warranty", "guarantee", "size", "color",
		"colour", "material", "return", "refund", "condition", "dimension", "weight", "stock",
		"available", "availability", "brand", "model", "feature", "specs", "made of", "tell me",
	)
)

// Classify sorts a shopper utterance into exactly one category.
func Classify(text string) Classification {
	lower := strings.ToLower(strings.TrimSpace(text))
	amount, hasAmount := ExtractPrice(lower)
	question := strings.Contains(lower, "?")
	affirm := affirmations.matchAffirmed(lower)
	discount := discountWords.match(lower)

	c := Classification{PurchaseIntent: purchaseWords.match(lower) || discount}
	if hasAmount {
		c.Amount = decimal.NewNullDecimal(amount)
	}

	switch {
	case affirm && hasAmount && !question:
		c.Category = CategoryAgreementWithPrice
	case affirm && !hasAmount && !question && !discount:
		c.Category = CategoryAgreement
	case hasAmount:
		c.Category = CategoryCounteroffer
	case discount:
		c.Category = CategoryDiscountRequest
	case !c.PurchaseIntent && (salutations.match(lower) || infoWords.match(lower)):
		c.Category = CategoryGreeting
	default:
		c.Category = CategoryOther
	}
	return c
}

type phraseSet []*regexp.Regexp

func wordSet(phrases ...string) phraseSet {
	set := make(phraseSet, 0, len(phrases))
	for _, p := range phrases {
		set = append(set, regexp.MustCompile(`(^|[^\pL\pN'])`+regexp.QuoteMeta(p)+`($|[^\pL\pN])`))
	}
	return set
}

var (
	clauseBreak = regexp.MustCompile(`[.,;:!?]+|\bbut\b`)
	negation    = regexp.MustCompile(`(^|[^\pL\pN'])(no|not|never|nope|nah|dont|cant|wont)($|[^\pL\pN])|n['’]t($|[^\pL\pN])`)
)

// matchAffirmed is match restricted to phrases not negated earlier in the same clause,
// so "no deal" and "not ok" are refusals.
func (s phraseSet) matchAffirmed(lower string) bool {
	for _, clause := range clauseBreak.Split(lower, -1) {
		for _, re := range s {
			loc := re.FindStringIndex(clause)
			if loc != nil && !negation.MatchString(clause[:loc[0]]) {
				return true
			}
		}
	}
	return false
}

func (s phraseSet) match(lower string) bool {
	for _, re := range s {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
