package engine

import (
	"context"
	"errors"
	"fmt"
	"tradeledger/types"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrDuplicatePolicy = errors.New("settlement policy configured twice")

type CapitalReport struct {
	Policies     []types.SettlementPolicy
	Requirements map[string]decimal.Decimal
	Ledgers      map[string][]types.LedgerEntry
}

// AnalyzeCapital simulates the same trades once per settlement policy. Every policy gets
// its own simulator, so the runs share nothing but the read-only trade slice.
func AnalyzeCapital(ctx context.Context, trades []types.Trade, config *CapitalConfig) (*CapitalReport, error) {
	seen := make(map[string]bool, len(config.policies))
	for _, p := range config.policies {
		if seen[p.Name] {
			return nil, fmt.Errorf("%s: %w", p.Name, ErrDuplicatePolicy)
		}
		seen[p.Name] = true
	}

	type policyResult struct {
		required decimal.Decimal
		ledger   []types.LedgerEntry
	}
	results := make([]policyResult, len(config.policies))

	g, ctx := errgroup.WithContext(ctx)
	for i, policy := range config.policies {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sim, err := NewSettlementSimulator(config.simulationConfig(policy))
			if err != nil {
				return fmt.Errorf("%s: %w", policy.Name, err)
			}
			ledger, err := sim.Simulate(trades)
			if err != nil {
				return fmt.Errorf("%s: %w", policy.Name, err)
			}
			required, err := RequiredCapital(ledger, policy, config.calendar)
			if err != nil {
				return fmt.Errorf("%s: %w", policy.Name, err)
			}
			results[i] = policyResult{required: required, ledger: ledger}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &CapitalReport{
		Policies:     append([]types.SettlementPolicy(nil), config.policies...),
		Requirements: make(map[string]decimal.Decimal, len(results)),
		Ledgers:      make(map[string][]types.LedgerEntry, len(results)),
	}
	for i, p := range config.policies {
		report.Requirements[p.Name] = results[i].required
		report.Ledgers[p.Name] = results[i].ledger
	}
	return report, nil
}
