package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
	"tradeledger/types"
)

// writeTradesCSVFile writes trades to a CSV file at the given path.
func writeTradesCSVFile(path string, trades []types.Trade) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close trades file: %w", cerr)
		}
	}()

	return WriteTradesCSV(f, trades)
}

// WriteTradesCSV writes one row per trade, with its collapsed entry and exit.
func WriteTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"trade_id",
		"symbol",
		"direction",
		"entry_side",
		"fills",
		"opened_at", // RFC3339
		"closed_at", // RFC3339
		"quantity",
		"avg_entry_price",
		"avg_exit_price",
		"value_spent",
		"value_extracted",
		"profit_loss",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, t := range trades {
		if err := writeTradeRow(cw, strconv.Itoa(i), t); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeTradeRow(cw *csv.Writer, tradeID string, t types.Trade) error {
	entry, exit := t.Legs()
	entryPrice, err := entry.AveragePrice()
	if err != nil {
		return fmt.Errorf("trade %s: %w", tradeID, err)
	}
	exitPrice, err := exit.AveragePrice()
	if err != nil {
		return fmt.Errorf("trade %s: %w", tradeID, err)
	}

	record := []string{
		tradeID,
		t.Symbol,
		string(t.Direction()),
		string(t.EntrySide()),
		strconv.Itoa(t.Len()),
		t.OpenedAt().Format(time.RFC3339),
		t.ClosedAt().Format(time.RFC3339),
		t.Quantity().String(),
		entryPrice.String(),
		exitPrice.String(),
		t.ValueSpent().String(),
		t.ValueExtracted().String(),
		t.ProfitLoss().String(),
	}
	if err := cw.Write(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func writeLedgerCSVFile(path string, entries []types.LedgerEntry) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ledger file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger file: %w", cerr)
		}
	}()

	return WriteLedgerCSV(f, entries)
}

// WriteLedgerCSV writes the audit trace of a simulation, one row per trade.
func WriteLedgerCSV(w io.Writer, entries []types.LedgerEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{
		"row",
		"symbol",
		"opened_at",
		"closed_at",
		"settles_on", // 2006-01-02
		"quantity",
		"cash_before",
		"low_water_mark",
		"ending_cash",
		"usage",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range entries {
		record := []string{
			strconv.Itoa(i),
			e.Trade.Symbol,
			e.Trade.OpenedAt().Format(time.RFC3339),
			e.Trade.ClosedAt().Format(time.RFC3339),
			e.SettlesOn.Format(time.DateOnly),
			e.Trade.Quantity().String(),
			e.CashBefore.String(),
			e.LowWaterMark.String(),
			e.EndingCash.String(),
			e.Usage().String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// writeReports writes <name>_<runID>_trades.csv and one ledger file per policy into dir.
func writeReports(dir, name, runID string, trades []types.Trade, capital *CapitalReport) ([]string, error) {
	if name == "" {
		name = "tradeledger"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	tradesPath := filepath.Join(dir, fmt.Sprintf("%s_%s_trades.csv", name, runID))
	if err := writeTradesCSVFile(tradesPath, trades); err != nil {
		return nil, err
	}
	written := []string{tradesPath}

	if capital == nil {
		return written, nil
	}
	for _, p := range capital.Policies {
		ledgerPath := filepath.Join(dir, fmt.Sprintf("%s_%s_ledger_%s.csv", name, runID, filepath.Base(p.Name)))
		if err := writeLedgerCSVFile(ledgerPath, capital.Ledgers[p.Name]); err != nil {
			return written, err
		}
		written = append(written, ledgerPath)
	}
	return written, nil
}
