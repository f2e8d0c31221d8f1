package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the cash trace of one simulated trade.
type LedgerEntry struct {
	Trade        Trade           `json:"trade"`
	CashBefore   decimal.Decimal `json:"cashBefore"`
	LowWaterMark decimal.Decimal `json:"lowWaterMark"`
	EndingCash   decimal.Decimal `json:"endingCash"`
	SettlesOn    time.Time       `json:"settlesOn"`
}

// Usage is the capital the trade tied up at its worst point.
func (e LedgerEntry) Usage() decimal.Decimal {
	return e.CashBefore.Sub(e.LowWaterMark)
}
