package engine

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

var ErrNoTrades = errors.New("no closed trades")

// AnalyzePerformance derives the report from closed trades. Costs only feed the
// net profit figures; every other statistic works on raw profit and loss.
func AnalyzePerformance(trades []types.Trade, costs types.CommissionModel) (types.PerformanceReport, error) {
	if len(trades) == 0 {
		return types.PerformanceReport{}, fmt.Errorf("win rate: %w: %w", ErrNoTrades, types.ErrUndefinedMetric)
	}

	report := types.PerformanceReport{TradeCount: len(trades)}

	var wg sync.WaitGroup
	wg.Add(7)
	go func() {
		defer wg.Done()
		report.WinRate, report.WinLossRatio, report.KellyFraction = calcWinLossStats(trades)
	}()
	go func() {
		defer wg.Done()
		report.Expectancy = calcExpectancy(trades)
	}()
	go func() {
		defer wg.Done()
		report.OverallROI = calcOverallROI(trades)
	}()
	go func() {
		defer wg.Done()
		report.BiggestWin, report.BiggestLoss = calcBiggestWinLoss(trades)
	}()
	go func() {
		defer wg.Done()
		report.GrossProfit, report.TotalCosts, report.NetProfit = calcNetProfit(trades, costs)
	}()
	go func() {
		defer wg.Done()
		report.AvgWin, report.AvgLoss = calcAvgWinLossPerTrade(trades)
	}()
	go func() {
		defer wg.Done()
		report.MaxConsecutiveLosses = calcMaxConsecutiveLosses(trades)
	}()
	wg.Wait()

	return report, nil
}

func calcWinLossStats(trades []types.Trade) (decimal.Decimal, types.Metric, types.Metric) {
	sumWins := decimal.Zero
	sumLosses := decimal.Zero // negative
	winCount := 0
	lossCount := 0

	for _, tr := range trades {
		pl := tr.ProfitLoss()
		switch {
		case pl.IsPositive():
			sumWins = sumWins.Add(pl)
			winCount++
		case pl.IsNegative():
			sumLosses = sumLosses.Add(pl)
			lossCount++
		}
	}

	winRate := decimal.NewFromInt(int64(winCount)).Div(decimal.NewFromInt(int64(len(trades))))

	var ratio types.Metric
	switch {
	case lossCount > 0:
		ratio = types.FiniteMetric(sumWins.Div(sumLosses.Neg()))
	case sumWins.IsPositive():
		ratio = types.InfiniteMetric()
	default:
		// only breakeven trades
		ratio = types.UndefinedMetric()
	}

	return winRate, ratio, kellyFraction(winRate, ratio)
}

func kellyFraction(winRate decimal.Decimal, ratio types.Metric) types.Metric {
	switch {
	case ratio.IsInfinite():
		return types.FiniteMetric(winRate)
	case ratio.IsUndefined(), ratio.Value.IsZero():
		return types.UndefinedMetric()
	}
	lossRate := decimal.NewFromInt(1).Sub(winRate)
	return types.FiniteMetric(winRate.Sub(lossRate.Div(ratio.Value)))
}

func calcExpectancy(trades []types.Trade) decimal.Decimal {
	total := decimal.Zero
	for _, tr := range trades {
		total = total.Add(tr.ProfitLoss())
	}
	return total.Div(decimal.NewFromInt(int64(len(trades))))
}

// calcOverallROI works on the aggregate notional of all trades, not an average of
// per trade returns. A short's spent value is negative and is left that way.
func calcOverallROI(trades []types.Trade) types.Metric {
	spent := decimal.Zero
	extracted := decimal.Zero
	for _, tr := range trades {
		spent = spent.Add(tr.ValueSpent())
		extracted = extracted.Add(tr.ValueExtracted())
	}
	if spent.IsZero() {
		return types.UndefinedMetric()
	}
	return types.FiniteMetric(extracted.Div(spent).Sub(decimal.NewFromInt(1)))
}

func calcBiggestWinLoss(trades []types.Trade) (types.Trade, types.Trade) {
	biggestWin, biggestLoss := trades[0], trades[0]
	bestPL, worstPL := trades[0].ProfitLoss(), trades[0].ProfitLoss()
	for _, tr := range trades[1:] {
		pl := tr.ProfitLoss()
		if pl.GreaterThan(bestPL) {
			biggestWin, bestPL = tr, pl
		}
		if pl.LessThan(worstPL) {
			biggestLoss, worstPL = tr, pl
		}
	}
	return biggestWin, biggestLoss
}

func calcNetProfit(trades []types.Trade, costs types.CommissionModel) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	grossProfit := decimal.Zero
	totalCosts := decimal.Zero
	for _, tr := range trades {
		grossProfit = grossProfit.Add(tr.ProfitLoss())
		totalCosts = totalCosts.Add(costs.TradeCost(tr.Quantity()))
	}
	return grossProfit, totalCosts, grossProfit.Sub(totalCosts)
}

func calcAvgWinLossPerTrade(trades []types.Trade) (decimal.Decimal, decimal.Decimal) {
	sumWins := decimal.Zero
	sumLosses := decimal.Zero // store absolute loss amounts
	winCount := 0
	lossCount := 0

	for _, tr := range trades {
		pl := tr.ProfitLoss()
		switch {
		case pl.GreaterThan(decimal.Zero):
			sumWins = sumWins.Add(pl)
			winCount++
		case pl.LessThan(decimal.Zero):
			sumLosses = sumLosses.Add(pl.Abs())
			lossCount++
		}
	}

	avgWin := decimal.Zero
	avgLoss := decimal.Zero

	if winCount > 0 {
		avgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	}
	if lossCount > 0 {
		avgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	}

	return avgWin, avgLoss
}

func calcMaxConsecutiveLosses(trades []types.Trade) int {
	// Streaks follow close time, trades closing together keep their order
	byClose := slices.Clone(trades)
	slices.SortStableFunc(byClose, func(a, b types.Trade) int {
		return a.ClosedAt().Compare(b.ClosedAt())
	})

	maxLossStreak := 0
	currentStreak := 0

	for _, tr := range byClose {
		if tr.ProfitLoss().LessThan(decimal.Zero) {
			currentStreak++
			if currentStreak > maxLossStreak {
				maxLossStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}

	return maxLossStreak
}

func PrintReport(w io.Writer, report types.PerformanceReport) {
	fmt.Fprintln(w, "===== Trading Report =====")
	fmt.Fprintf(w, "Total Trades:          %d\n", report.TradeCount)

	fmt.Fprintln(w, "\n-- Trade Statistics --")
	fmt.Fprintf(w, "Win Rate:              %s\n", report.WinRate.StringFixed(4))
	fmt.Fprintf(w, "Win/Loss Ratio:        %s\n", fixedMetric(report.WinLossRatio))
	fmt.Fprintf(w, "Expectancy:            %s\n", report.Expectancy.StringFixed(2))
	fmt.Fprintf(w, "Overall ROI:           %s\n", fixedMetric(report.OverallROI))
	fmt.Fprintf(w, "Kelly Fraction:        %s\n", fixedMetric(report.KellyFraction))
	fmt.Fprintf(w, "Biggest Win:           %s %s (%s)\n", report.BiggestWin.Symbol,
		report.BiggestWin.ProfitLoss().StringFixed(2), report.BiggestWin.OpenedAt().Format("2006-01-02"))
	fmt.Fprintf(w, "Biggest Loss:          %s %s (%s)\n", report.BiggestLoss.Symbol,
		report.BiggestLoss.ProfitLoss().StringFixed(2), report.BiggestLoss.OpenedAt().Format("2006-01-02"))

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "Gross Profit:          %s\n", report.GrossProfit.StringFixed(2))
	fmt.Fprintf(w, "Costs:                 %s\n", report.TotalCosts.StringFixed(2))
	fmt.Fprintf(w, "Net Profit:            %s\n", report.NetProfit.StringFixed(2))
	fmt.Fprintf(w, "Avg Win:               %s\n", report.AvgWin.StringFixed(2))
	fmt.Fprintf(w, "Avg Loss:              %s\n", report.AvgLoss.StringFixed(2))
	fmt.Fprintf(w, "Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Fprintln(w, "==========================")
}

func PrintCapital(w io.Writer, capital *CapitalReport) {
	fmt.Fprintln(w, "===== Required Capital =====")
	for _, p := range capital.Policies {
		fmt.Fprintf(w, "%-10s (T+%d):      %s\n", p.Name, p.DelayDays, capital.Requirements[p.Name].StringFixed(2))
	}
	fmt.Fprintln(w, "============================")
}

func fixedMetric(m types.Metric) string {
	if !m.IsFinite() {
		return m.String()
	}
	return m.Value.StringFixed(4)
}
