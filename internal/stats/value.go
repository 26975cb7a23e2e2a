// Package stats implements the statistic definition registry and the
// built-in HUD metrics. Definitions participate twice: tag detection while a
// hand is being converted, and aggregation when a player's records are
// calculated into display values.
package stats

import (
	"fmt"
	"math"
)

// Fraction is an occurrence/opportunity pair.
type Fraction struct {
	Num int
	Den int
}

// Value is a calculated metric value: an int count, a Fraction, or an
// opaque payload the formatter understands.
type Value any

// Result is one calculated metric, ready for display. Never persisted.
type Result struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Value     Value  `json:"value,omitempty"`
	Formatted string `json:"formatted"`
}

// FormatPercentage renders a Fraction as "75.0% (3/4)". A zero or
// non-finite denominator renders as "-".
func FormatPercentage(f Fraction) string {
	if f.Den == 0 {
		return "-"
	}
	pct := float64(f.Num) / float64(f.Den) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1f%% (%d/%d)", pct, f.Num, f.Den)
}

// FormatRatio renders a Fraction as a plain ratio like "2.5 (5/2)", used by
// aggression factor where a percentage reads wrong.
func FormatRatio(f Fraction) string {
	if f.Den == 0 {
		return "-"
	}
	ratio := float64(f.Num) / float64(f.Den)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d/%d)", ratio, f.Num, f.Den)
}

// FormatCount renders an int count.
func FormatCount(n int) string {
	return fmt.Sprintf("%d", n)
}

func formatValue(def *Definition, v Value) string {
	if def.Format != nil {
		return def.Format(v)
	}
	switch val := v.(type) {
	case Fraction:
		return FormatPercentage(val)
	case int:
		return FormatCount(val)
	default:
		return "-"
	}
}
