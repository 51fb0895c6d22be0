package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is one already-aggregated observation from the price oracle:
// a value, the oracle's self-reported confidence interval around it, and the
// time the feed last updated. All release decisions compare Value and the
// escrow threshold as exact decimals; floats never enter the decision.
type PriceQuote struct {
	Value      decimal.Decimal
	Confidence decimal.Decimal
	UpdatedAt  time.Time
}

// StaleAt reports whether the quote is older than maxAge at the given instant
func (q *PriceQuote) StaleAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(q.UpdatedAt) > maxAge
}

// ExceedsConfidence reports whether the oracle's uncertainty is wider than the
// caller's bound. A too-uncertain feed is treated the same as an unmet
// condition, never silently accepted.
func (q *PriceQuote) ExceedsConfidence(bound decimal.Decimal) bool {
	return q.Confidence.GreaterThan(bound)
}
