package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"tradeledger/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testEngine(source OrderSource, reporting *ReportingConfig) (*Engine, *observer.ObservedLogs, *bytes.Buffer) {
	core, logs := observer.New(zap.InfoLevel)
	capital := NewCapitalConfig(dec("1000"), types.CommissionModel{}, nil)
	e := NewEngine(source, NewEngineConfig(capital, reporting, true), zap.New(core))
	out := &bytes.Buffer{}
	e.out = out
	return e, logs, out
}

func TestEngine_Run(t *testing.T) {
	source := SliceSource{
		newOrder("X", "10", "10", at(0)),
		newOrder("Y", "5", "20", at(1)),
		newOrder("X", "-10", "12", at(2)),
		newOrder("X", "-4", "13", at(3)),
		newOrder("X", "4", "12", at(4)),
	}
	dir := t.TempDir()
	e, logs, out := testEngine(source, NewReportingConfig(true, true, "unit", dir))

	got, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got.RunID == "" {
		t.Error("RunID is empty")
	}
	if got.Fills != 5 {
		t.Errorf("Fills = %d, want 5", got.Fills)
	}
	if len(got.Trades) != 2 {
		t.Fatalf("Trades = %d, want 2", len(got.Trades))
	}
	if len(got.Open) != 1 || got.Open[0].Symbol != "Y" {
		t.Errorf("Open = %+v, want Y", got.Open)
	}
	if got.Report == nil || got.Report.TradeCount != 2 {
		t.Fatalf("Report = %+v, want 2 trades", got.Report)
	}
	if !got.Report.GrossProfit.Equal(dec("24")) {
		t.Errorf("GrossProfit = %s, want 24", got.Report.GrossProfit)
	}
	if len(got.Files) != 4 {
		t.Errorf("Files = %v, want trades plus three ledgers", got.Files)
	}
	if !strings.Contains(out.String(), "===== Trading Report =====") || !strings.Contains(out.String(), "===== Required Capital =====") {
		t.Errorf("printed output:\n%s", out.String())
	}
	if n := logs.FilterMessage("Position still open at end of stream").Len(); n != 1 {
		t.Errorf("open position warnings = %d, want 1", n)
	}
}

func TestEngine_RunWithoutTrades(t *testing.T) {
	e, logs, out := testEngine(SliceSource{newOrder("X", "1", "10", at(0))}, nil)

	got, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got.Report != nil {
		t.Errorf("Report = %+v, want nil", got.Report)
	}
	for name, required := range got.Capital.Requirements {
		if !required.Equal(decimal.Zero) {
			t.Errorf("%s requirement = %s, want 0", name, required)
		}
	}
	if out.Len() != 0 {
		t.Errorf("printed %q with printing disabled", out.String())
	}
	if logs.FilterMessage("No closed trades, skipping performance report").Len() != 1 {
		t.Error("missing no trades warning")
	}
}

func TestEngine_RunNonChronological(t *testing.T) {
	e, _, _ := testEngine(SliceSource{
		newOrder("X", "1", "10", at(1)),
		newOrder("X", "-1", "10", at(0)),
	}, nil)

	if _, err := e.Run(context.Background()); !errors.Is(err, ErrNonChronological) {
		t.Fatalf("Run() error = %v, want %v", err, ErrNonChronological)
	}
}

func TestSliceSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := replay(ctx, SliceSource{newOrder("X", "1", "10", at(0))}, true)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("replay() error = %v, want %v", err, context.Canceled)
	}
}
