package engine

import (
	"fmt"
	"slices"
	"time"
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

// SettlementSimulator replays trades against a cash balance. Every trade is collapsed
// into one virtual entry (its buys) and one virtual exit (its sells).
type SettlementSimulator struct {
	config   *SimulationConfig
	cash     decimal.Decimal
	lastOpen time.Time
	started  bool
}

func NewSettlementSimulator(config *SimulationConfig) (*SettlementSimulator, error) {
	if err := config.commission.Validate(); err != nil {
		return nil, err
	}
	if err := config.policy.Validate(); err != nil {
		return nil, err
	}
	return &SettlementSimulator{
		config: config,
		cash:   config.initialCash,
	}, nil
}

func (s *SettlementSimulator) Cash() decimal.Decimal {
	return s.cash
}

// Apply books one trade. Trades must arrive ordered by their first fill.
func (s *SettlementSimulator) Apply(trade types.Trade) (types.LedgerEntry, error) {
	if s.started && trade.OpenedAt().Before(s.lastOpen) {
		return types.LedgerEntry{}, fmt.Errorf("%s trade opened %s, previous trade opened %s: %w",
			trade.Symbol,
			trade.OpenedAt().Format(time.RFC3339Nano),
			s.lastOpen.Format(time.RFC3339Nano),
			ErrNonChronological,
		)
	}

	buy, sell := trade.BuyLeg(), trade.SellLeg()
	if _, err := buy.AveragePrice(); err != nil {
		return types.LedgerEntry{}, fmt.Errorf("%s entry: %w", trade.Symbol, err)
	}
	if _, err := sell.AveragePrice(); err != nil {
		return types.LedgerEntry{}, fmt.Errorf("%s exit: %w", trade.Symbol, err)
	}

	c := s.config.commission
	qty := buy.Quantity
	cashBefore := s.cash

	// (avg price + slippage) * qty, taken from the notional so repeating averages stay exact
	entryValue := buy.Notional.Add(c.SlippagePerShare.Mul(qty))
	s.cash = s.cash.Sub(entryValue).
		Sub(c.CommissionPerOrder).
		Sub(c.CommissionPerShare.Mul(qty))
	lowWaterMark := s.cash

	exitValue := sell.Notional.Sub(c.SlippagePerShare.Mul(qty))
	s.cash = s.cash.Add(exitValue).Sub(c.CommissionPerOrder)
	// an exit worth less than its commission digs below the entry debit
	lowWaterMark = decimal.Min(lowWaterMark, s.cash)

	s.lastOpen = trade.OpenedAt()
	s.started = true

	return types.LedgerEntry{
		Trade:        trade,
		CashBefore:   cashBefore,
		LowWaterMark: lowWaterMark,
		EndingCash:   s.cash,
		SettlesOn:    s.config.policy.SettlementDate(s.config.calendar, trade.ClosedAt()),
	}, nil
}

// Simulate books trades ordered by their first fill; trades opened at the same
// instant keep their input order.
func (s *SettlementSimulator) Simulate(trades []types.Trade) ([]types.LedgerEntry, error) {
	ordered := slices.Clone(trades)
	slices.SortStableFunc(ordered, func(a, b types.Trade) int {
		return a.OpenedAt().Compare(b.OpenedAt())
	})

	entries := make([]types.LedgerEntry, 0, len(ordered))
	for _, trade := range ordered {
		entry, err := s.Apply(trade)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MinimumInitialCash is the smallest starting balance that keeps cash from going
// negative over the ledger, whatever starting balance the ledger was run with.
func MinimumInitialCash(entries []types.LedgerEntry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	initialCash := entries[0].CashBefore
	lowest := entries[0].LowWaterMark
	for _, e := range entries[1:] {
		if e.LowWaterMark.LessThan(lowest) {
			lowest = e.LowWaterMark
		}
	}
	required := initialCash.Sub(lowest)
	if required.IsNegative() {
		return decimal.Zero
	}
	return required
}
