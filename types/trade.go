package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyTrade      = errors.New("trade has no fills")
	ErrMixedSymbols    = errors.New("trade mixes symbols")
	ErrUnbalancedTrade = errors.New("trade quantities do not sum to zero")
	ErrUnorderedTrade  = errors.New("trade fills are not in timestamp order")
)

// Trade is a round trip: fills of one symbol whose quantities sum to zero.
// Build it with NewTrade; the fills are copied and never handed out mutably.
type Trade struct {
	Symbol string
	orders []FilledOrder
}

func NewTrade(orders []FilledOrder) (Trade, error) {
	if len(orders) == 0 {
		return Trade{}, ErrEmptyTrade
	}
	symbol := orders[0].Symbol
	total := decimal.Zero
	for i, o := range orders {
		if o.Symbol != symbol {
			return Trade{}, fmt.Errorf("%s and %s: %w", symbol, o.Symbol, ErrMixedSymbols)
		}
		if i > 0 && o.Timestamp.Before(orders[i-1].Timestamp) {
			return Trade{}, fmt.Errorf("%s fill %d: %w", symbol, i, ErrUnorderedTrade)
		}
		total = total.Add(o.Quantity)
	}
	if !total.IsZero() {
		return Trade{}, fmt.Errorf("%s sums to %s: %w", symbol, total, ErrUnbalancedTrade)
	}
	return Trade{
		Symbol: symbol,
		orders: append([]FilledOrder(nil), orders...),
	}, nil
}

// Orders returns a copy of the fills in timestamp order.
func (t Trade) Orders() []FilledOrder {
	return append([]FilledOrder(nil), t.orders...)
}

func (t Trade) Len() int {
	return len(t.orders)
}

func (t Trade) OpenedAt() time.Time {
	if len(t.orders) == 0 {
		return time.Time{}
	}
	return t.orders[0].Timestamp
}

func (t Trade) ClosedAt() time.Time {
	if len(t.orders) == 0 {
		return time.Time{}
	}
	return t.orders[len(t.orders)-1].Timestamp
}

// EntrySide is the side of the first fill; the exit side is the opposite one.
func (t Trade) EntrySide() Side {
	if len(t.orders) == 0 {
		return SideTypeBuy
	}
	return t.orders[0].Side()
}

// Direction is decided by the first fill.
func (t Trade) Direction() Direction {
	if t.EntrySide() == SideTypeSell {
		return DirectionShort
	}
	return DirectionLong
}

// Leg aggregates the fills of one side of a trade.
type Leg struct {
	Quantity decimal.Decimal // absolute
	Notional decimal.Decimal // sum of price * |quantity|
	Fills    int
}

func (l Leg) add(o FilledOrder) Leg {
	qty := o.Quantity.Abs()
	return Leg{
		Quantity: l.Quantity.Add(qty),
		Notional: l.Notional.Add(o.Price.Mul(qty)),
		Fills:    l.Fills + 1,
	}
}

// AveragePrice is the quantity weighted fill price of the leg.
func (l Leg) AveragePrice() (decimal.Decimal, error) {
	if l.Quantity.IsZero() {
		return decimal.Zero, fmt.Errorf("average price of empty leg: %w", ErrUndefinedMetric)
	}
	return l.Notional.Div(l.Quantity), nil
}

func (t Trade) BuyLeg() Leg {
	leg := Leg{}
	for _, o := range t.orders {
		if o.Quantity.IsPositive() {
			leg = leg.add(o)
		}
	}
	return leg
}

func (t Trade) SellLeg() Leg {
	leg := Leg{}
	for _, o := range t.orders {
		if o.Quantity.IsNegative() {
			leg = leg.add(o)
		}
	}
	return leg
}

// Legs splits the trade into the entry side (the first fill's side) and the exit side.
func (t Trade) Legs() (entry Leg, exit Leg) {
	if t.Direction() == DirectionShort {
		return t.SellLeg(), t.BuyLeg()
	}
	return t.BuyLeg(), t.SellLeg()
}

// Quantity is the total bought, which equals the total sold.
func (t Trade) Quantity() decimal.Decimal {
	return t.BuyLeg().Quantity
}

// ProfitLoss sums -quantity*price over every fill, valid for longs and shorts alike.
func (t Trade) ProfitLoss() decimal.Decimal {
	pl := decimal.Zero
	for _, o := range t.orders {
		pl = pl.Add(o.CashDelta())
	}
	return pl
}

// ValueSpent sums quantity*price over the entry side fills. It is negative for shorts.
func (t Trade) ValueSpent() decimal.Decimal {
	spent := decimal.Zero
	for _, o := range t.orders {
		if t.isEntry(o) {
			spent = spent.Add(o.Quantity.Mul(o.Price))
		}
	}
	return spent
}

// ValueExtracted sums -quantity*price over the exit side fills.
func (t Trade) ValueExtracted() decimal.Decimal {
	extracted := decimal.Zero
	for _, o := range t.orders {
		if !t.isEntry(o) {
			extracted = extracted.Add(o.CashDelta())
		}
	}
	return extracted
}

func (t Trade) isEntry(o FilledOrder) bool {
	return o.Side() == t.EntrySide()
}

type tradeJSON struct {
	Symbol            string          `json:"symbol"`
	Direction         Direction       `json:"direction"`
	OpenedAt          time.Time       `json:"openedAt"`
	ClosedAt          time.Time       `json:"closedAt"`
	Quantity          decimal.Decimal `json:"quantity"`
	AverageEntryPrice decimal.Decimal `json:"averageEntryPrice"`
	AverageExitPrice  decimal.Decimal `json:"averageExitPrice"`
	ProfitLoss        decimal.Decimal `json:"profitLoss"`
	Orders            []FilledOrder   `json:"orders"`
}

func (t Trade) MarshalJSON() ([]byte, error) {
	if len(t.orders) == 0 {
		return []byte("null"), nil
	}
	entry, exit := t.Legs()
	entryPrice, err := entry.AveragePrice()
	if err != nil {
		return nil, err
	}
	exitPrice, err := exit.AveragePrice()
	if err != nil {
		return nil, err
	}
	return json.Marshal(tradeJSON{
		Symbol:            t.Symbol,
		Direction:         t.Direction(),
		OpenedAt:          t.OpenedAt(),
		ClosedAt:          t.ClosedAt(),
		Quantity:          t.Quantity(),
		AverageEntryPrice: entryPrice,
		AverageExitPrice:  exitPrice,
		ProfitLoss:        t.ProfitLoss(),
		Orders:            t.orders,
	})
}

// OpenPosition is what is left of a symbol whose quantity never returned to zero.
// AvgCost covers the fills since the position last crossed zero.
type OpenPosition struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avgCost"`
	LastPrice decimal.Decimal `json:"lastPrice"`
	Orders    []FilledOrder   `json:"orders"`
}

// UnrealizedPL marks the position at its last fill price.
func (p OpenPosition) UnrealizedPL() decimal.Decimal {
	return p.LastPrice.Sub(p.AvgCost).Mul(p.Quantity)
}
