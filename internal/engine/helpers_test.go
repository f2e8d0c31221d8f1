package engine

import (
	"testing"
	"time"
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

var baseTime = time.Date(2024, 3, 4, 14, 30, 0, 0, time.UTC) // a Monday

func at(minutes int) time.Time {
	return baseTime.Add(time.Duration(minutes) * time.Minute)
}

func onDay(days int) time.Time {
	return baseTime.AddDate(0, 0, days)
}

func newOrder(symbol, qty, price string, ts time.Time) types.FilledOrder {
	return types.FilledOrder{
		Symbol:    symbol,
		Quantity:  decimal.RequireFromString(qty),
		Price:     decimal.RequireFromString(price),
		Timestamp: ts,
	}
}

func mustTrade(t *testing.T, orders ...types.FilledOrder) types.Trade {
	t.Helper()
	trade, err := types.NewTrade(orders)
	if err != nil {
		t.Fatalf("NewTrade() error = %v", err)
	}
	return trade
}

// roundTrip is a long trade opened on day and closed holdDays later.
func roundTrip(t *testing.T, symbol string, day, holdDays int, qty, entry, exit string) types.Trade {
	t.Helper()
	return mustTrade(t,
		newOrder(symbol, qty, entry, onDay(day)),
		newOrder(symbol, "-"+qty, exit, onDay(day+holdDays).Add(time.Hour)),
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
