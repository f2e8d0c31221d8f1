package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptySymbol   = errors.New("fill has no symbol")
	ErrZeroQuantity  = errors.New("fill quantity must not be zero")
	ErrNegativePrice = errors.New("fill price must not be negative")
)

// FilledOrder is a single execution. Quantity is signed: positive buys, negative sells.
type FilledOrder struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	// Intention is carried through untouched, e.g. the signal or order id that produced the fill.
	Intention any `json:"intention,omitempty"`
}

func NewFilledOrder(
	symbol string,
	quantity decimal.Decimal,
	price decimal.Decimal,
	timestamp time.Time,
	intention any,
) (FilledOrder, error) {
	order := FilledOrder{
		Symbol:    symbol,
		Quantity:  quantity,
		Price:     price,
		Timestamp: timestamp,
		Intention: intention,
	}
	if err := order.Validate(); err != nil {
		return FilledOrder{}, err
	}
	return order, nil
}

func (o FilledOrder) Validate() error {
	if o.Symbol == "" {
		return ErrEmptySymbol
	}
	if o.Quantity.IsZero() {
		return fmt.Errorf("%s at %s: %w", o.Symbol, o.Timestamp.Format(time.RFC3339), ErrZeroQuantity)
	}
	if o.Price.IsNegative() {
		return fmt.Errorf("%s at %s price %s: %w", o.Symbol, o.Timestamp.Format(time.RFC3339), o.Price, ErrNegativePrice)
	}
	return nil
}

func (o FilledOrder) Side() Side {
	if o.Quantity.IsPositive() {
		return SideTypeBuy
	}
	return SideTypeSell
}

// CashDelta is the cash movement caused by the fill, ignoring costs.
func (o FilledOrder) CashDelta() decimal.Decimal {
	return o.Quantity.Mul(o.Price).Neg()
}
