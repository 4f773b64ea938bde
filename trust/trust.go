// Package trust flags advertisers as trusted, using a per-venue strategy.
package trust

import "strings"

const (
	// MinTradeCount is the (exclusive) activity threshold of the heuristic
	MinTradeCount = 300

	// MinCompletionRate is the (exclusive) completion rate threshold of the heuristic
	MinCompletionRate = 95.0
)

// Strategy is the named trust strategy of a venue
type Strategy string

const (
	// StrategyWhitelist trusts only allow-listed advertisers
	StrategyWhitelist Strategy = "whitelist"

	// StrategyHeuristic trusts active, reliable advertisers
	StrategyHeuristic Strategy = "heuristic"

	// StrategyCombined trusts allow-listed advertisers, or ones passing the heuristic
	StrategyCombined Strategy = "combined"
)

// Valid returns true if the strategy is known
func (s Strategy) Valid() bool {
	switch s {
	case StrategyWhitelist, StrategyHeuristic, StrategyCombined:
		return true
	default:
		return false
	}
}

// Rule is the trust configuration of a single venue
type Rule struct {
	Strategy  Strategy `toml:"strategy"`
	Whitelist []string `toml:"whitelist"`
}

// Table maps the (lowercase) venue identifier to its rule
type Table map[string]Rule

// DefaultTable returns the built-in venue rules
func DefaultTable() Table {
	return Table{
		"binance": {
			Strategy:  StrategyCombined,
			Whitelist: []string{"BXNEXCHANGE"},
		},
		"bybit": {
			Strategy: StrategyHeuristic,
		},
	}
}

type venueRule struct {
	allowed  map[string]struct{}
	strategy Strategy
}

// Classifier is a pure trust predicate, safe for concurrent use
type Classifier struct {
	rules map[string]venueRule
}

// NewClassifier creates a classifier from the given venue table.
// Venues missing from the table, or with an empty whitelist,
// are governed by the heuristic
func NewClassifier(table Table) *Classifier {
	rules := make(map[string]venueRule, len(table))

	for venue, rule := range table {
		allowed := make(map[string]struct{}, len(rule.Whitelist))

		for _, entry := range rule.Whitelist {
			if entry == "" {
				continue
			}

			allowed[entry] = struct{}{}
		}

		strategy := rule.Strategy
		if !strategy.Valid() {
			strategy = StrategyHeuristic
		}

		rules[strings.ToLower(venue)] = venueRule{
			allowed:  allowed,
			strategy: strategy,
		}
	}

	return &Classifier{
		rules: rules,
	}
}

// IsTrusted reports whether the advertiser is trusted on the venue
func (c *Classifier) IsTrusted(
	venue string,
	advertiserID string,
	advertiserName string,
	tradeCount int,
	completionRate float64,
) bool {
	// Venues without allow-set entries are governed by the heuristic alone
	rule, ok := c.rules[strings.ToLower(venue)]
	if !ok || len(rule.allowed) == 0 {
		return Heuristic(tradeCount, completionRate)
	}

	switch rule.strategy {
	case StrategyWhitelist:
		return rule.listed(advertiserID, advertiserName)
	case StrategyCombined:
		return rule.listed(advertiserID, advertiserName) ||
			Heuristic(tradeCount, completionRate)
	default:
		return Heuristic(tradeCount, completionRate)
	}
}

// Heuristic is the activity / reputation threshold check
func Heuristic(tradeCount int, completionRate float64) bool {
	return tradeCount > MinTradeCount && completionRate > MinCompletionRate
}

// listed checks the allow-set (exact, case-sensitive match)
func (r venueRule) listed(id, name string) bool {
	if id != "" {
		if _, ok := r.allowed[id]; ok {
			return true
		}
	}

	if name != "" {
		if _, ok := r.allowed[name]; ok {
			return true
		}
	}

	return false
}
