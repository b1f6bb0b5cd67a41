package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"dollar sign", "Can I get it for $80?", "80"},
		{"dollar sign with space", "how about $ 75.50", "75.5"},
		{"rupee sign", "₹1,299 is fair", "1299"},
		{"currency word", "I'll give you 90 bucks", "90"},
		{"dollars", "what about 120 dollars", "120"},
		{"cue phrase", "can you do 85", "85"},
		{"budget phrase", "my budget is 150", "150"},
		{"trailing max", "140 is my max", "140"},
		{"bare number", "150", "150"},
		{"bare number with price context", "would you take 95 for it", "95"},
		{"first by position wins", "not $100 but maybe $90", "100"},
		{"cents", "$189.15 works", "189.15"},
		{"single digit with marker", "$9", "9"},
		{"thousands separator", "I could pay 1,250.00 dollars", "1250"},
		{"conditional cue", "I'd do 85.50", "85.5"},
		{"trailing ok", "is 80 ok?", "80"},
		{"trailing okay", "75 okay?", "75"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractPrice(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestExtractPrice_NoMatch(t *testing.T) {
	for _, text := range []string{
		"",
		"hello there",
		"does it ship in 2 days?",
		"is the model v2 any good",
		"can you give me a discount of 10%",
		"does the 15 inch version exist",
		"I have 3 kids",
		"$0",
	} {
		_, ok := ExtractPrice(text)
		assert.False(t, ok, text)
	}
}
