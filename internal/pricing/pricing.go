// Package pricing holds the money and percentage arithmetic of the
// marketplace. All math runs on decimal.Decimal and is converted back to
// float64 at the edges, where documents and templates expect plain numbers.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sakif/venturehub/internal/model"
)

// ValuationMultiple converts annual earnings into a company valuation.
const ValuationMultiple = 7

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.RequireFromString("0.01")
)

// ToMinor converts a major-unit amount to the gateway's minor units.
func ToMinor(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(hundred).Round(0).IntPart()
}

// FromMinor converts gateway minor units back to major units.
func FromMinor(minor int64) float64 {
	return decimal.New(minor, -2).InexactFloat64()
}

// Valuation is earnings times ValuationMultiple.
func Valuation(earnings float64) float64 {
	return decimal.NewFromFloat(earnings).Mul(decimal.NewFromInt(ValuationMultiple)).InexactFloat64()
}

// MaxEquity is the percentage of the company the ask buys at the given
// valuation. A zero valuation offers no equity.
func MaxEquity(ask, valuation float64) float64 {
	v := decimal.NewFromFloat(valuation)
	if !v.IsPositive() {
		return 0
	}
	return decimal.NewFromFloat(ask).Div(v).Mul(hundred).Round(2).InexactFloat64()
}

// AmountForEquity prices an equity percentage, capped at the ask. Results
// within one cent of the ask snap to the ask so that taking the maximum
// equity never leaves a rounding remainder.
func AmountForEquity(equity, valuation, ask float64) float64 {
	askD := decimal.NewFromFloat(ask)
	amount := decimal.NewFromFloat(equity).Div(hundred).Mul(decimal.NewFromFloat(valuation))
	if amount.GreaterThan(askD) || askD.Sub(amount).Abs().LessThanOrEqual(tolerance) {
		return ask
	}
	return amount.Round(2).InexactFloat64()
}

// SpacePrice prices a collaborative-space booking from a monthly cost,
// assuming thirty-day months.
func SpacePrice(monthlyCost float64, days int) float64 {
	perDay := decimal.NewFromFloat(monthlyCost).Div(decimal.NewFromInt(30))
	return perDay.Mul(decimal.NewFromInt(int64(days))).Round(2).InexactFloat64()
}

// Percent is part/whole*100 rounded to two places, 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(2).InexactFloat64()
}

// DaysLeft counts whole days from now until expiry, truncated toward zero:
// half a day past expiry is still 0, a day and a half past is -1.
func DaysLeft(now, expiry time.Time) int {
	return int(expiry.Sub(now) / (24 * time.Hour))
}

// ProfileCompletion is the share of ProfileSchema fields answered in
// sections, as a percentage. A false answer is an answer, and yes/no fields
// always count as filled.
func ProfileCompletion(sections map[string]map[string]any) float64 {
	filled, total := 0, 0
	for _, sec := range model.ProfileSchema {
		answers := sections[sec.Section]
		for _, f := range sec.Fields {
			total++
			if f.YesNo || answered(answers[f.Key]) {
				filled++
			}
		}
	}
	return Percent(filled, total)
}

func answered(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return true
	case string:
		return strings.TrimSpace(x) != ""
	case []any:
		return len(x) > 0
	default:
		return strings.TrimSpace(fmt.Sprint(x)) != ""
	}
}
