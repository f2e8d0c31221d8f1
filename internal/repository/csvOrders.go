package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
	"time"
	"tradeledger/types"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// CSVSource reads a fill log with the header symbol,quantity,price,timestamp[,intention].
// UTF-8 and UTF-16 files with a byte order mark are decoded transparently.
type CSVSource struct {
	name string
	open func() (io.ReadCloser, error)
}

func NewCSVFileSource(path string) *CSVSource {
	return &CSVSource{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewCSVSource wraps a reader; it can only be iterated once.
func NewCSVSource(r io.Reader) *CSVSource {
	return &CSVSource{
		name: "csv",
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (s *CSVSource) Orders(ctx context.Context) iter.Seq2[types.FilledOrder, error] {
	return func(yield func(types.FilledOrder, error) bool) {
		rc, err := s.open()
		if err != nil {
			yield(types.FilledOrder{}, fmt.Errorf("open %s: %w", s.name, err))
			return
		}
		defer rc.Close()

		decoded := transform.NewReader(rc, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
		cr := csv.NewReader(decoded)
		cr.TrimLeadingSpace = true
		cr.FieldsPerRecord = -1

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			yield(types.FilledOrder{}, fmt.Errorf("%s: %w", s.name, ErrNoFills))
			return
		}
		if err != nil {
			yield(types.FilledOrder{}, fmt.Errorf("read header %s: %w", s.name, err))
			return
		}
		cols, err := columnIndex(header)
		if err != nil {
			yield(types.FilledOrder{}, fmt.Errorf("%s: %w", s.name, err))
			return
		}

		found := false
		for {
			if err := ctx.Err(); err != nil {
				yield(types.FilledOrder{}, err)
				return
			}
			record, err := cr.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				yield(types.FilledOrder{}, fmt.Errorf("read %s: %w", s.name, err))
				return
			}
			line, _ := cr.FieldPos(0)
			order, err := parseRecord(record, cols)
			if err != nil {
				yield(types.FilledOrder{}, fmt.Errorf("%s line %d: %w: %w", s.name, line, ErrInvalidFill, err))
				return
			}
			found = true
			if !yield(order, nil) {
				return
			}
		}
		if !found {
			yield(types.FilledOrder{}, fmt.Errorf("%s: %w", s.name, ErrNoFills))
		}
	}
}

type csvColumns struct {
	symbol, quantity, price, timestamp int
	intention                          int // -1 when absent
}

func columnIndex(header []string) (csvColumns, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := csvColumns{intention: -1}
	required := []struct {
		name string
		dst  *int
	}{
		{"symbol", &cols.symbol},
		{"quantity", &cols.quantity},
		{"price", &cols.price},
		{"timestamp", &cols.timestamp},
	}
	for _, r := range required {
		i, ok := idx[r.name]
		if !ok {
			return csvColumns{}, fmt.Errorf("%s: %w", r.name, ErrMissingColumn)
		}
		*r.dst = i
	}
	if i, ok := idx["intention"]; ok {
		cols.intention = i
	}
	return cols, nil
}

func parseRecord(record []string, cols csvColumns) (types.FilledOrder, error) {
	field := func(i int) string {
		if i < 0 || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	qty, err := decimal.NewFromString(field(cols.quantity))
	if err != nil {
		return types.FilledOrder{}, fmt.Errorf("quantity: %w", err)
	}
	price, err := decimal.NewFromString(field(cols.price))
	if err != nil {
		return types.FilledOrder{}, fmt.Errorf("price: %w", err)
	}
	ts, err := parseTimestamp(field(cols.timestamp))
	if err != nil {
		return types.FilledOrder{}, err
	}
	var intention any
	if s := field(cols.intention); s != "" {
		intention = s
	}
	return types.NewFilledOrder(field(cols.symbol), qty, price, ts, intention)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q not RFC3339 or date", s)
}
