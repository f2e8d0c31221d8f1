package engine

import (
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"tradeledger/types"

	"github.com/schollz/progressbar/v3"
)

// OrderSource streams fills in ascending timestamp order.
type OrderSource interface {
	Orders(ctx context.Context) iter.Seq2[types.FilledOrder, error]
}

// SliceSource serves fills that are already in memory.
type SliceSource []types.FilledOrder

func (s SliceSource) Orders(ctx context.Context) iter.Seq2[types.FilledOrder, error] {
	return func(yield func(types.FilledOrder, error) bool) {
		for _, o := range s {
			if err := ctx.Err(); err != nil {
				yield(types.FilledOrder{}, err)
				return
			}
			if !yield(o, nil) {
				return
			}
		}
	}
}

// replay pushes every fill of the source through a fresh grouper.
func replay(ctx context.Context, source OrderSource, quiet bool) (GroupResult, int, error) {
	bar := initProgressBar(-1, quiet)
	grouper := NewTradeGrouper()

	var trades []types.Trade
	fills := 0
	for order, err := range source.Orders(ctx) {
		if err != nil {
			return GroupResult{}, fills, fmt.Errorf("read fills: %w", err)
		}
		trade, err := grouper.Push(order)
		if err != nil {
			return GroupResult{}, fills, fmt.Errorf("fill %d: %w", fills, err)
		}
		if trade != nil {
			trades = append(trades, *trade)
		}
		fills++
		bar.Add(1)
	}
	bar.Finish()

	return GroupResult{Trades: trades, Open: grouper.OpenPositions()}, fills, nil
}

func initProgressBar(maxTicks int, quiet bool) *progressbar.ProgressBar {
	var w io.Writer = os.Stderr
	if quiet {
		w = io.Discard
	}
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Replaying fills..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
