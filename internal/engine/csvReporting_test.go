package engine

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"tradeledger/types"
)

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestWriteTradesCSV(t *testing.T) {
	trades := []types.Trade{
		mustTrade(t,
			newOrder("X", "50", "50", at(0)),
			newOrder("X", "50", "100", at(1)),
			newOrder("X", "-50", "80", at(2)),
			newOrder("X", "-50", "75", at(3)),
		),
		mustTrade(t,
			newOrder("Y", "-10", "20", at(4)),
			newOrder("Y", "10", "22", at(5)),
		),
	}

	var buf bytes.Buffer
	if err := WriteTradesCSV(&buf, trades); err != nil {
		t.Fatalf("WriteTradesCSV() error = %v", err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 3 {
		t.Fatalf("rows = %d, want 3", len(records))
	}

	wantHeader := []string{"trade_id", "symbol", "direction", "entry_side", "fills", "opened_at", "closed_at", "quantity",
		"avg_entry_price", "avg_exit_price", "value_spent", "value_extracted", "profit_loss"}
	if !reflect.DeepEqual(records[0], wantHeader) {
		t.Errorf("header = %v, want %v", records[0], wantHeader)
	}

	tests := []struct {
		row  []string
		want map[int]string
	}{
		{row: records[1], want: map[int]string{1: "X", 2: "LONG", 3: "BUY", 4: "4", 7: "100", 8: "75", 9: "77.5", 10: "7500", 11: "7750", 12: "250"}},
		{row: records[2], want: map[int]string{1: "Y", 2: "SHORT", 3: "SELL", 4: "2", 7: "10", 8: "20", 9: "22", 10: "-200", 11: "-220", 12: "-20"}},
	}
	for _, tt := range tests {
		for col, want := range tt.want {
			if tt.row[col] != want {
				t.Errorf("%s column %s = %q, want %q", tt.row[1], wantHeader[col], tt.row[col], want)
			}
		}
	}
}

func TestWriteLedgerCSV(t *testing.T) {
	entries := simulate(t, types.Cash(), roundTrip(t, "A", 0, 4, "10", "10", "12"))

	var buf bytes.Buffer
	if err := WriteLedgerCSV(&buf, entries); err != nil {
		t.Fatalf("WriteLedgerCSV() error = %v", err)
	}
	records := readCSV(t, buf.Bytes())
	if len(records) != 2 {
		t.Fatalf("rows = %d, want 2", len(records))
	}
	want := []string{"0", "A", "2024-03-04T14:30:00Z", "2024-03-08T15:30:00Z", "2024-03-12", "10", "0", "-100", "20", "100"}
	if !reflect.DeepEqual(records[1], want) {
		t.Errorf("row = %v, want %v", records[1], want)
	}
}

func TestWriteCSVFiles(t *testing.T) {
	dir := t.TempDir()
	trades := []types.Trade{roundTrip(t, "A", 0, 0, "1", "10", "11")}

	tradesPath := filepath.Join(dir, "trades.csv")
	if err := writeTradesCSVFile(tradesPath, trades); err != nil {
		t.Fatalf("writeTradesCSVFile() error = %v", err)
	}
	ledgerPath := filepath.Join(dir, "ledger.csv")
	if err := writeLedgerCSVFile(ledgerPath, simulate(t, types.Cash(), trades...)); err != nil {
		t.Fatalf("writeLedgerCSVFile() error = %v", err)
	}
	for _, path := range []string{tradesPath, ledgerPath} {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if rows := readCSV(t, data); len(rows) != 2 {
			t.Errorf("%s has %d rows, want 2", path, len(rows))
		}
	}

	missing := filepath.Join(dir, "missing", "trades.csv")
	if err := writeTradesCSVFile(missing, trades); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("writeTradesCSVFile() error = %v, want %v", err, os.ErrNotExist)
	}
	if err := writeLedgerCSVFile(missing, nil); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("writeLedgerCSVFile() error = %v, want %v", err, os.ErrNotExist)
	}
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	trades := []types.Trade{roundTrip(t, "A", 0, 0, "1", "10", "11")}
	capital := &CapitalReport{
		Policies: []types.SettlementPolicy{types.Idealized(), types.Custom(3)},
		Ledgers: map[string][]types.LedgerEntry{
			"idealized": simulate(t, types.Idealized(), trades...),
			"t+3":       simulate(t, types.Custom(3), trades...),
		},
	}

	files, err := writeReports(filepath.Join(dir, "out"), "", "run1", trades, capital)
	if err != nil {
		t.Fatalf("writeReports() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "out", "tradeledger_run1_trades.csv"),
		filepath.Join(dir, "out", "tradeledger_run1_ledger_idealized.csv"),
		filepath.Join(dir, "out", "tradeledger_run1_ledger_t+3.csv"),
	}
	if !reflect.DeepEqual(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			t.Errorf("stat %s: %v", f, err)
		}
	}
}
