package engine

import (
	"errors"
	"fmt"
	"time"
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

var ErrInvalidWindow = errors.New("usage window must span at least one day")

// DayUsage is the capital consumed by the trades exiting on one trading day.
type DayUsage struct {
	Day    time.Time
	Usage  decimal.Decimal
	Trades int
}

// DailyUsage buckets each trade's usage by its exit day and returns a dense series
// over the calendar, with zero usage on trading days without exits.
// Exits on non-trading days count towards the next trading day.
func DailyUsage(entries []types.LedgerEntry, calendar types.Calendar) []DayUsage {
	if len(entries) == 0 {
		return nil
	}

	type dayKey struct {
		year  int
		month time.Month
		day   int
	}
	keyOf := func(t time.Time) dayKey {
		y, m, d := t.Date()
		return dayKey{year: y, month: m, day: d}
	}

	buckets := make(map[dayKey]*DayUsage)
	var first, last time.Time
	for i, e := range entries {
		day := types.RollForward(calendar, e.Trade.ClosedAt())
		if i == 0 || day.Before(first) {
			first = day
		}
		if i == 0 || day.After(last) {
			last = day
		}
		b, ok := buckets[keyOf(day)]
		if !ok {
			b = &DayUsage{Day: day, Usage: decimal.Zero}
			buckets[keyOf(day)] = b
		}
		b.Usage = b.Usage.Add(e.Usage())
		b.Trades++
	}

	var series []DayUsage
	for day := first; !day.After(last); day = types.NextTradingDay(calendar, day) {
		if b, ok := buckets[keyOf(day)]; ok {
			series = append(series, *b)
			continue
		}
		series = append(series, DayUsage{Day: day, Usage: decimal.Zero})
	}
	return series
}

// MaxWindowSum slides a window of w consecutive values one step at a time and returns
// the largest sum and where that window starts. A series shorter than w is a single window.
func MaxWindowSum(values []decimal.Decimal, w int) (decimal.Decimal, int, error) {
	if w < 1 {
		return decimal.Zero, 0, fmt.Errorf("window %d: %w", w, ErrInvalidWindow)
	}
	if len(values) == 0 {
		return decimal.Zero, 0, nil
	}
	if w > len(values) {
		w = len(values)
	}

	sum := decimal.Zero
	for _, v := range values[:w] {
		sum = sum.Add(v)
	}
	best, start := sum, 0
	for i := w; i < len(values); i++ {
		sum = sum.Add(values[i]).Sub(values[i-w])
		if sum.GreaterThan(best) {
			best = sum
			start = i - w + 1
		}
	}
	return best, start, nil
}

// WindowForPolicy is how many exit days can have capital locked at the same time.
func WindowForPolicy(policy types.SettlementPolicy) int {
	if policy.Kind == types.SettlementIdealized || policy.DelayDays < 1 {
		return 1
	}
	return policy.DelayDays
}

// RequiredCapital is the starting balance needed to run the ledger's trades under policy.
// Delayed settlement can only add to what the idealized ledger needs.
func RequiredCapital(entries []types.LedgerEntry, policy types.SettlementPolicy, calendar types.Calendar) (decimal.Decimal, error) {
	idealized := MinimumInitialCash(entries)
	if policy.Kind == types.SettlementIdealized {
		return idealized, nil
	}

	daily := DailyUsage(entries, calendar)
	values := make([]decimal.Decimal, len(daily))
	for i, d := range daily {
		values[i] = d.Usage
	}
	worst, _, err := MaxWindowSum(values, WindowForPolicy(policy))
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Max(idealized, worst), nil
}
