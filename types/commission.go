package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrNegativeCommission = errors.New("commission model values must not be negative")

// CommissionModel is charged on both the entry and the exit of every trade.
type CommissionModel struct {
	CommissionPerOrder decimal.Decimal `json:"commissionPerOrder" yaml:"commission_per_order"`
	CommissionPerShare decimal.Decimal `json:"commissionPerShare" yaml:"commission_per_share"`
	SlippagePerShare   decimal.Decimal `json:"slippagePerShare" yaml:"slippage_per_share"`
}

func NewCommissionModel(perOrder, perShare, slippagePerShare decimal.Decimal) (CommissionModel, error) {
	model := CommissionModel{
		CommissionPerOrder: perOrder,
		CommissionPerShare: perShare,
		SlippagePerShare:   slippagePerShare,
	}
	if err := model.Validate(); err != nil {
		return CommissionModel{}, err
	}
	return model, nil
}

func (c CommissionModel) Validate() error {
	switch {
	case c.CommissionPerOrder.IsNegative():
		return fmt.Errorf("commission per order %s: %w", c.CommissionPerOrder, ErrNegativeCommission)
	case c.CommissionPerShare.IsNegative():
		return fmt.Errorf("commission per share %s: %w", c.CommissionPerShare, ErrNegativeCommission)
	case c.SlippagePerShare.IsNegative():
		return fmt.Errorf("slippage per share %s: %w", c.SlippagePerShare, ErrNegativeCommission)
	}
	return nil
}

// TradeCost is what one round trip of qty shares loses to commissions and slippage:
// two order commissions, the per share commission on entry and slippage on both sides.
func (c CommissionModel) TradeCost(qty decimal.Decimal) decimal.Decimal {
	two := decimal.NewFromInt(2)
	return c.CommissionPerOrder.Mul(two).
		Add(c.CommissionPerShare.Mul(qty)).
		Add(c.SlippagePerShare.Mul(qty).Mul(two))
}
