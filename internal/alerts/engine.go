// Package alerts derives budget threshold notices from current budgets and
// spend aggregates. Alerts are computed fresh on every request and never
// stored.
package alerts

import (
	"fmt"

	"finch/internal/core"
)

// NearingThreshold is the spend/budget ratio at which a nearing alert fires.
const NearingThreshold = 0.9

// Engine evaluates budgets against spend totals.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Compute walks budgets in store order and emits one alert per category that
// has met or crossed a threshold. Categories absent from spend count as zero.
//
// A budget <= 0 reports exceeded as soon as spend reaches it; a zero budget
// with zero spend is therefore already exceeded. This degenerate case is kept
// on purpose: an explicitly zeroed budget means any spend (or none) is over.
func (e *Engine) Compute(budgets []core.Budget, spend map[string]float64) []core.Alert {
	var out []core.Alert

	for _, b := range budgets {
		spent := spend[b.Category]

		switch {
		case spent >= b.Amount:
			overage := spent - b.Amount
			out = append(out, core.Alert{
				Category: b.Category,
				Kind:     core.AlertExceeded,
				Amount:   overage,
				Message:  fmt.Sprintf("%s budget exceeded by %.2f", b.Category, overage),
			})
		case spent >= NearingThreshold*b.Amount:
			pct := spent / b.Amount * 100
			out = append(out, core.Alert{
				Category: b.Category,
				Kind:     core.AlertNearing,
				Amount:   pct,
				Message:  fmt.Sprintf("%s budget reaching limit (%.1f%% used)", b.Category, pct),
			})
		}
	}

	return out
}
