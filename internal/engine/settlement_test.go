package engine

import (
	"errors"
	"testing"
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

func TestSettlementSimulator_Apply(t *testing.T) {
	tests := []struct {
		name        string
		initialCash string
		commission  types.CommissionModel
		orders      []types.FilledOrder
		wantLow     string
		wantEnding  string
		wantMinimum string
	}{
		{
			name:        "long round trip from zero cash",
			initialCash: "0",
			orders: []types.FilledOrder{
				newOrder("X", "10", "10", at(0)),
				newOrder("X", "-10", "12", at(60)),
			},
			wantLow:     "-100",
			wantEnding:  "20",
			wantMinimum: "100",
		},
		{
			name:        "initial cash does not change the minimum",
			initialCash: "1000",
			orders: []types.FilledOrder{
				newOrder("X", "10", "10", at(0)),
				newOrder("X", "-10", "12", at(60)),
			},
			wantLow:     "900",
			wantEnding:  "1020",
			wantMinimum: "100",
		},
		{
			name:        "commissions and slippage on both sides",
			initialCash: "2000",
			commission: types.CommissionModel{
				CommissionPerOrder: dec("1"),
				CommissionPerShare: dec("0.01"),
				SlippagePerShare:   dec("0.05"),
			},
			orders: []types.FilledOrder{
				newOrder("X", "100", "10", at(0)),
				newOrder("X", "-100", "11", at(60)),
			},
			wantLow:     "993",
			wantEnding:  "2087",
			wantMinimum: "1007",
		},
		{
			name:        "short trade still pays for its buys first",
			initialCash: "0",
			orders: []types.FilledOrder{
				newOrder("X", "-10", "12", at(0)),
				newOrder("X", "10", "10", at(60)),
			},
			wantLow:     "-100",
			wantEnding:  "20",
			wantMinimum: "100",
		},
		{
			name:        "worthless exit below its commission",
			initialCash: "0",
			commission:  types.CommissionModel{CommissionPerOrder: dec("1")},
			orders: []types.FilledOrder{
				newOrder("X", "10", "10", at(0)),
				newOrder("X", "-10", "0", at(60)),
			},
			wantLow:     "-102",
			wantEnding:  "-102",
			wantMinimum: "102",
		},
		{
			name:        "exit slippage larger than the exit price",
			initialCash: "500",
			commission:  types.CommissionModel{SlippagePerShare: dec("0.5")},
			orders: []types.FilledOrder{
				newOrder("X", "10", "1", at(0)),
				newOrder("X", "-10", "0.2", at(60)),
			},
			wantLow:     "482",
			wantEnding:  "482",
			wantMinimum: "18",
		},
		{
			name:        "repeating average price stays exact",
			initialCash: "0",
			orders: []types.FilledOrder{
				newOrder("X", "1", "10", at(0)),
				newOrder("X", "1", "10", at(1)),
				newOrder("X", "1", "11", at(2)),
				newOrder("X", "-3", "11", at(3)),
			},
			wantLow:     "-31",
			wantEnding:  "2",
			wantMinimum: "31",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewSimulationConfig(dec(tt.initialCash), types.Idealized(), tt.commission, nil)
			sim, err := NewSettlementSimulator(config)
			if err != nil {
				t.Fatalf("NewSettlementSimulator() error = %v", err)
			}
			entry, err := sim.Apply(mustTrade(t, tt.orders...))
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			if !entry.CashBefore.Equal(dec(tt.initialCash)) {
				t.Errorf("CashBefore = %s, want %s", entry.CashBefore, tt.initialCash)
			}
			if !entry.LowWaterMark.Equal(dec(tt.wantLow)) {
				t.Errorf("LowWaterMark = %s, want %s", entry.LowWaterMark, tt.wantLow)
			}
			if !entry.EndingCash.Equal(dec(tt.wantEnding)) {
				t.Errorf("EndingCash = %s, want %s", entry.EndingCash, tt.wantEnding)
			}
			if !sim.Cash().Equal(entry.EndingCash) {
				t.Errorf("Cash() = %s, want %s", sim.Cash(), entry.EndingCash)
			}
			got := MinimumInitialCash([]types.LedgerEntry{entry})
			if !got.Equal(dec(tt.wantMinimum)) {
				t.Errorf("MinimumInitialCash() = %s, want %s", got, tt.wantMinimum)
			}
		})
	}
}

func TestSettlementSimulator_SettlesOn(t *testing.T) {
	// opened Monday, closed Friday
	trade := roundTrip(t, "X", 0, 4, "1", "10", "11")

	tests := []struct {
		policy types.SettlementPolicy
		want   int // days after baseTime
	}{
		{policy: types.Idealized(), want: 4},
		{policy: types.Margin(), want: 7},
		{policy: types.Cash(), want: 8},
		{policy: types.Custom(5), want: 11},
	}
	for _, tt := range tests {
		t.Run(tt.policy.Name, func(t *testing.T) {
			sim, err := NewSettlementSimulator(NewSimulationConfig(decimal.Zero, tt.policy, types.CommissionModel{}, types.WeekdayCalendar{}))
			if err != nil {
				t.Fatalf("NewSettlementSimulator() error = %v", err)
			}
			entry, err := sim.Apply(trade)
			if err != nil {
				t.Fatalf("Apply() error = %v", err)
			}
			want := types.Day(onDay(tt.want))
			if !entry.SettlesOn.Equal(want) {
				t.Errorf("SettlesOn = %s, want %s", entry.SettlesOn, want)
			}
		})
	}
}

func TestSettlementSimulator_OrderedByOpen(t *testing.T) {
	first := roundTrip(t, "A", 0, 0, "1", "10", "11")
	second := roundTrip(t, "B", 1, 0, "2", "10", "9")

	sim, err := NewSettlementSimulator(NewSimulationConfig(decimal.Zero, types.Idealized(), types.CommissionModel{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sim.Apply(second); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if _, err := sim.Apply(first); !errors.Is(err, ErrNonChronological) {
		t.Fatalf("Apply() error = %v, want %v", err, ErrNonChronological)
	}

	sim, err = NewSettlementSimulator(NewSimulationConfig(decimal.Zero, types.Idealized(), types.CommissionModel{}, nil))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := sim.Simulate([]types.Trade{second, first})
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if entries[0].Trade.Symbol != "A" || entries[1].Trade.Symbol != "B" {
		t.Fatalf("Simulate() order = %s, %s; want A, B", entries[0].Trade.Symbol, entries[1].Trade.Symbol)
	}
	// A: 0 -> -10 -> 1, B: 1 -> -19 -> -1
	if !entries[1].CashBefore.Equal(dec("1")) || !entries[1].LowWaterMark.Equal(dec("-19")) {
		t.Errorf("B entry = %s/%s, want 1/-19", entries[1].CashBefore, entries[1].LowWaterMark)
	}
	if got := MinimumInitialCash(entries); !got.Equal(dec("19")) {
		t.Errorf("MinimumInitialCash() = %s, want 19", got)
	}
}

func TestNewSettlementSimulator_Invalid(t *testing.T) {
	_, err := NewSettlementSimulator(NewSimulationConfig(decimal.Zero, types.Idealized(), types.CommissionModel{CommissionPerOrder: dec("-1")}, nil))
	if !errors.Is(err, types.ErrNegativeCommission) {
		t.Errorf("negative commission error = %v, want %v", err, types.ErrNegativeCommission)
	}
	_, err = NewSettlementSimulator(NewSimulationConfig(decimal.Zero, types.Custom(-1), types.CommissionModel{}, nil))
	if !errors.Is(err, types.ErrNegativeSettlementDelay) {
		t.Errorf("negative delay error = %v, want %v", err, types.ErrNegativeSettlementDelay)
	}
}

func TestMinimumInitialCash_NeverOverdrawn(t *testing.T) {
	trades := []types.Trade{
		roundTrip(t, "A", 0, 0, "10", "10", "0"),
		roundTrip(t, "B", 1, 0, "5", "20", "21"),
	}
	commission := types.CommissionModel{CommissionPerOrder: dec("1")}

	sim, err := NewSettlementSimulator(NewSimulationConfig(decimal.Zero, types.Idealized(), commission, nil))
	if err != nil {
		t.Fatal(err)
	}
	entries, err := sim.Simulate(trades)
	if err != nil {
		t.Fatal(err)
	}
	required := MinimumInitialCash(entries)

	sim, err = NewSettlementSimulator(NewSimulationConfig(required, types.Idealized(), commission, nil))
	if err != nil {
		t.Fatal(err)
	}
	funded, err := sim.Simulate(trades)
	if err != nil {
		t.Fatal(err)
	}
	for i, e := range funded {
		if e.LowWaterMark.IsNegative() || e.EndingCash.IsNegative() {
			t.Fatalf("starting with %s, entry %d dips to %s and ends at %s", required, i, e.LowWaterMark, e.EndingCash)
		}
	}
}

func TestMinimumInitialCash_Empty(t *testing.T) {
	if got := MinimumInitialCash(nil); !got.IsZero() {
		t.Errorf("MinimumInitialCash(nil) = %s, want 0", got)
	}
}
