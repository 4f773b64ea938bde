package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_Heuristic(t *testing.T) {
	t.Parallel()

	testTable := []struct {
		name           string
		tradeCount     int
		completionRate float64
		expected       bool
	}{
		{"active and reliable", 500, 96, true},
		{"trade count on threshold", 300, 99, false},
		{"completion rate on threshold", 1000, 95, false},
		{"inactive", 1, 100, false},
		{"unreliable", 1000, 80, false},
	}

	c := NewClassifier(Table{
		"bybit": {Strategy: StrategyHeuristic},
	})

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(
				t,
				testCase.expected,
				c.IsTrusted("bybit", "id", "name", testCase.tradeCount, testCase.completionRate),
			)
		})
	}
}

func TestClassifier_Whitelist(t *testing.T) {
	t.Parallel()

	c := NewClassifier(Table{
		"venue": {
			Strategy:  StrategyWhitelist,
			Whitelist: []string{"12345", "TrustedDesk"},
		},
	})

	t.Run("listed id", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("venue", "12345", "someone", 0, 0))
	})

	t.Run("listed name", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("venue", "", "TrustedDesk", 1, 0))
	})

	t.Run("case-sensitive", func(t *testing.T) {
		t.Parallel()

		assert.False(t, c.IsTrusted("venue", "", "trusteddesk", 1, 0))
	})

	t.Run("heuristic ignored", func(t *testing.T) {
		t.Parallel()

		assert.False(t, c.IsTrusted("venue", "999", "busy", 5000, 100))
	})

	t.Run("empty id never matches", func(t *testing.T) {
		t.Parallel()

		withEmpty := NewClassifier(Table{
			"venue": {Strategy: StrategyWhitelist, Whitelist: []string{""}},
		})

		assert.False(t, withEmpty.IsTrusted("venue", "", "", 0, 0))
	})

	t.Run("empty whitelist falls back to heuristic", func(t *testing.T) {
		t.Parallel()

		empty := NewClassifier(Table{
			"venue": {Strategy: StrategyWhitelist},
		})

		assert.True(t, empty.IsTrusted("venue", "", "", 500, 96))
		assert.False(t, empty.IsTrusted("venue", "", "", 300, 96))
	})
}

func TestClassifier_Combined(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultTable())

	t.Run("whitelisted name with no activity", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("binance", "", "BXNEXCHANGE", 1, 0))
	})

	t.Run("heuristic without whitelist match", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("binance", "abc", "someone", 500, 96))
	})

	t.Run("neither", func(t *testing.T) {
		t.Parallel()

		assert.False(t, c.IsTrusted("binance", "abc", "someone", 10, 96))
	})

	t.Run("empty whitelist falls back to heuristic", func(t *testing.T) {
		t.Parallel()

		empty := NewClassifier(Table{
			"venue": {Strategy: StrategyCombined},
		})

		assert.True(t, empty.IsTrusted("venue", "", "", 500, 96))
		assert.False(t, empty.IsTrusted("venue", "", "", 1, 96))
	})
}

func TestClassifier_VenueSelection(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultTable())

	t.Run("whitelist is venue scoped", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("binance", "", "BXNEXCHANGE", 1, 0))
		assert.False(t, c.IsTrusted("bybit", "", "BXNEXCHANGE", 1, 0))
	})

	t.Run("venue lookup is case-insensitive", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("Binance", "", "BXNEXCHANGE", 1, 0))
	})

	t.Run("unknown venue uses heuristic", func(t *testing.T) {
		t.Parallel()

		assert.True(t, c.IsTrusted("okx", "", "", 500, 96))
		assert.False(t, c.IsTrusted("okx", "", "BXNEXCHANGE", 1, 0))
	})

	t.Run("unknown strategy uses heuristic", func(t *testing.T) {
		t.Parallel()

		odd := NewClassifier(Table{
			"venue": {Strategy: "vibes", Whitelist: []string{"x"}},
		})

		assert.False(t, odd.IsTrusted("venue", "x", "", 1, 0))
		assert.True(t, odd.IsTrusted("venue", "", "", 500, 96))
	})
}
