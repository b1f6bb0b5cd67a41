// Package pricing holds the negotiation decision engine: price extraction, message
// classification, offer calculation and reconciliation of generated prose.
package pricing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?`)

var (
	currencyPrefixes = []string{"$", "₹", "€", "£", "usd", "rs.", "rs", "inr"}
	currencySuffixes = []string{"$", "dollars", "dollar", "bucks", "usd", "rupees", "euros"}
	cuePhrases       = []string{
		"can you do", "could you do", "how about", "what about", "my budget is", "budget of",
		"i can pay", "i can do", "would you take", "will you take", "i'll pay", "i will pay",
		"i offer", "my offer is", "i'd do", "i would do", "i'd pay", "i would pay", "for",
	}
	cueSuffixes = []string{"is my max", "is my limit", "is my budget", "max", "tops", "ok", "okay"}
	// Bare numbers followed by these are quantities, not prices.
	// Bare numbers only count as prices when the message talks about money.
	contextWords = []string{
		"price", "pay", "offer", "budget", "cost", "deal", "discount", "cheaper", "take",
		"sell", "give", "spend", "afford", "counter", "lower",
	}
	unitSuffixes = []string{
		"%", "percent", "unit", "pc", "pcs", "piece", "item", "day", "week", "month", "year",
		"hour", "minute", "min", "gb", "tb", "mb", "inch", "cm", "mm", "kg", "g ", "x ",
	}
)

// ExtractPrice returns the first plausible monetary amount in text.
func ExtractPrice(text string) (decimal.Decimal, bool) {
	lower := strings.ToLower(text)
	priceContext := hasContext(lower)
	for _, loc := range amountPattern.FindAllStringIndex(lower, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isWordChar(lastRune(lower[:start])) {
			continue // part of a token like "v2" or "x100"
		}
		if end < len(lower) && isWordChar(firstRune(lower[end:])) && !hasAnyPrefix(lower[end:], currencySuffixes) {
			continue
		}
		raw := lower[start:end]
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err != nil || !amount.IsPositive() {
			continue
		}

		before := strings.TrimRight(lower[:start], " \t")
		after := strings.TrimLeft(lower[end:], " \t")
		switch {
		case hasAnySuffix(before, currencyPrefixes):
		case hasAnyPrefix(after, currencySuffixes):
		case hasAnySuffix(before, cuePhrases) && !hasAnyPrefix(after, unitSuffixes):
		case hasAnyPrefix(after, cueSuffixes):
		case digitCount(raw) >= 2 && !hasAnyPrefix(after, unitSuffixes) && (priceContext || isBare(lower, raw)):
		default:
			continue
		}
		return amount, true
	}
	return decimal.Decimal{}, false
}

func hasContext(lower string) bool {
	for _, w := range contextWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// isBare reports whether the message is nothing but the number, e.g. "80?" or "150!".
func isBare(lower, raw string) bool {
	rest := strings.Trim(strings.Replace(lower, raw, "", 1), " \t\n?!.")
	return rest == ""
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if !strings.HasSuffix(s, suf) {
			continue
		}
		// word suffixes must stand alone ("for", not "comfort")
		head := s[:len(s)-len(suf)]
		if isWordChar(firstRune(suf)) && head != "" && isWordChar(lastRune(head)) {
			continue
		}
		return true
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		tail := s[len(p):]
		if isWordChar(lastRune(p)) && tail != "" && isWordChar(firstRune(tail)) && !strings.HasSuffix(p, " ") {
			// allow plurals of unit words ("days", "units")
			if firstRune(tail) != 's' || (len(tail) > 1 && isWordChar(rune(tail[1]))) {
				continue
			}
		}
		return true
	}
	return false
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r == '.' {
			break
		}
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
