package types

import "github.com/shopspring/decimal"

type PerformanceReport struct {
	TradeCount    int             `json:"tradeCount"`
	WinRate       decimal.Decimal `json:"winRate"`
	WinLossRatio  Metric          `json:"winLossRatio"`
	Expectancy    decimal.Decimal `json:"expectancy"`
	OverallROI    Metric          `json:"overallRoi"`
	KellyFraction Metric          `json:"kellyFraction"`
	BiggestWin    Trade           `json:"biggestWin"`
	BiggestLoss   Trade           `json:"biggestLoss"`

	// Absolute performance after the commission model
	GrossProfit decimal.Decimal `json:"grossProfit"`
	TotalCosts  decimal.Decimal `json:"totalCosts"`
	NetProfit   decimal.Decimal `json:"netProfit"`

	// Trade-level distribution
	AvgWin               decimal.Decimal `json:"avgWin"`
	AvgLoss              decimal.Decimal `json:"avgLoss"`
	MaxConsecutiveLosses int             `json:"maxConsecutiveLosses"`
}
