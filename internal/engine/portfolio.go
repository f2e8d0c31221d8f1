package engine

import (
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

type position struct {
	quantity  decimal.Decimal
	avgCost   decimal.Decimal
	lastPrice decimal.Decimal
}

// portfolio tracks the running position of every symbol that is not flat.
type portfolio struct {
	positions map[string]*position
}

func newPortfolio() *portfolio {
	return &portfolio{positions: make(map[string]*position)}
}

// apply books the fill and returns the position after it. A position that crosses
// zero restarts its average cost at the crossing fill's price.
func (p *portfolio) apply(order types.FilledOrder) position {
	pos := p.positions[order.Symbol]
	if pos == nil {
		pos = &position{}
		p.positions[order.Symbol] = pos
	}

	oldQty := pos.quantity
	newQty := oldQty.Add(order.Quantity)

	switch {
	case sameSide(oldQty, newQty):
		absOld := oldQty.Abs()
		absAdd := order.Quantity.Abs()
		if newQty.Abs().GreaterThan(absOld) {
			pos.avgCost = weightedAvg(pos.avgCost, absOld, order.Price, absAdd)
		}
		pos.quantity = newQty

	case oldQty.IsZero():
		pos.quantity = newQty
		pos.avgCost = order.Price

	case newQty.IsZero():
		pos.quantity = decimal.Zero
		pos.avgCost = decimal.Zero

	default:
		pos.quantity = newQty
		pos.avgCost = order.Price
	}

	pos.lastPrice = order.Price
	return *pos
}

func (p *portfolio) openPosition(symbol string, orders []types.FilledOrder) types.OpenPosition {
	open := types.OpenPosition{
		Symbol: symbol,
		Orders: append([]types.FilledOrder(nil), orders...),
	}
	if pos := p.positions[symbol]; pos != nil {
		open.Quantity = pos.quantity
		open.AvgCost = pos.avgCost
		open.LastPrice = pos.lastPrice
	}
	return open
}

func (p *portfolio) close(symbol string) {
	delete(p.positions, symbol)
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.GreaterThan(decimal.Zero) && b.GreaterThan(decimal.Zero)) ||
		(a.LessThan(decimal.Zero) && b.LessThan(decimal.Zero))
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
