package engine

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sort"
	"time"
	"tradeledger/types"
)

var (
	ErrNonChronological   = errors.New("fill is earlier than a previously observed fill")
	ErrUnexpectedMultiLeg = errors.New("unexpected multi-leg trade")
)

// GroupResult holds the closed round trips and whatever never returned to flat.
type GroupResult struct {
	Trades []types.Trade
	Open   []types.OpenPosition
}

// TradeGrouper turns a time ordered fill stream into round trip trades.
// A trade closes the first time a symbol's running quantity returns to exactly zero.
type TradeGrouper struct {
	pending  map[string][]types.FilledOrder
	book     *portfolio
	lastSeen time.Time
	started  bool
}

func NewTradeGrouper() *TradeGrouper {
	return &TradeGrouper{
		pending: make(map[string][]types.FilledOrder),
		book:    newPortfolio(),
	}
}

// Push feeds one fill and returns the trade it closed, or nil when the symbol is still open.
// A rejected fill leaves the grouper untouched.
func (g *TradeGrouper) Push(order types.FilledOrder) (*types.Trade, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}
	if g.started && order.Timestamp.Before(g.lastSeen) {
		return nil, fmt.Errorf("%s at %s, last fill at %s: %w",
			order.Symbol,
			order.Timestamp.Format(time.RFC3339Nano),
			g.lastSeen.Format(time.RFC3339Nano),
			ErrNonChronological,
		)
	}
	g.lastSeen = order.Timestamp
	g.started = true

	pending := append(g.pending[order.Symbol], order)
	if pos := g.book.apply(order); !pos.quantity.IsZero() {
		g.pending[order.Symbol] = pending
		return nil, nil
	}

	delete(g.pending, order.Symbol)
	g.book.close(order.Symbol)
	trade, err := types.NewTrade(pending)
	if err != nil {
		return nil, err
	}
	return &trade, nil
}

// OpenPositions lists the symbols that are not flat, sorted by symbol.
func (g *TradeGrouper) OpenPositions() []types.OpenPosition {
	open := make([]types.OpenPosition, 0, len(g.pending))
	for symbol, orders := range g.pending {
		open = append(open, g.book.openPosition(symbol, orders))
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Symbol < open[j].Symbol })
	return open
}

// GroupTrades drains the sequence into trades, in the order they closed.
func GroupTrades(orders iter.Seq[types.FilledOrder]) (GroupResult, error) {
	g := NewTradeGrouper()
	var trades []types.Trade
	for order := range orders {
		trade, err := g.Push(order)
		if err != nil {
			return GroupResult{}, err
		}
		if trade != nil {
			trades = append(trades, *trade)
		}
	}
	return GroupResult{Trades: trades, Open: g.OpenPositions()}, nil
}

func GroupOrders(orders []types.FilledOrder) (GroupResult, error) {
	return GroupTrades(slices.Values(orders))
}

// RequireRoundTrip is for callers that only understand a single entry and a single exit.
func RequireRoundTrip(trade types.Trade) error {
	if trade.Len() != 2 {
		return fmt.Errorf("%s opened %s has %d fills: %w",
			trade.Symbol, trade.OpenedAt().Format(time.RFC3339), trade.Len(), ErrUnexpectedMultiLeg)
	}
	return nil
}
