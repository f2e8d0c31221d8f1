package repository

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
	"tradeledger/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// FillQuery narrows the fills read from the store. Zero values mean no filter;
// End is exclusive.
type FillQuery struct {
	Symbols []string
	Start   time.Time
	End     time.Time
}

type fillRow struct {
	ID        int64
	Symbol    string
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	FilledAt  time.Time
	Intention *string
}

const listFills = `
SELECT id, symbol, quantity, price, filled_at, intention
FROM filled_orders
WHERE ($1::text[] IS NULL OR symbol = ANY($1))
  AND ($2::timestamptz IS NULL OR filled_at >= $2)
  AND ($3::timestamptz IS NULL OR filled_at < $3)
ORDER BY filled_at, id`

type pgFills struct {
	pool *pgxpool.Pool
}

func (q pgFills) ScanFills(ctx context.Context, arg FillQuery, fn func(fillRow) error) error {
	var symbols []string
	if len(arg.Symbols) > 0 {
		symbols = arg.Symbols
	}
	rows, err := q.pool.Query(ctx, listFills, symbols, optionalTime(arg.Start), optionalTime(arg.End))
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r fillRow
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Quantity, &r.Price, &r.FilledAt, &r.Intention); err != nil {
			return fmt.Errorf("scan fill: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

var errStopIteration = errors.New("iteration stopped by consumer")

// Orders streams the matching fills ordered by fill time.
func (db *Database) Orders(ctx context.Context, q FillQuery) iter.Seq2[types.FilledOrder, error] {
	return func(yield func(types.FilledOrder, error) bool) {
		found := false
		stopped := false
		err := db.fills.ScanFills(ctx, q, func(row fillRow) error {
			found = true
			order, err := convertFill(row)
			if err != nil {
				return err
			}
			if !yield(order, nil) {
				stopped = true
				return errStopIteration
			}
			return nil
		})
		switch {
		case stopped:
			return
		case err != nil:
			yield(types.FilledOrder{}, err)
		case !found:
			yield(types.FilledOrder{}, ErrNoFills)
		}
	}
}

// FillSource binds a query to the database so it can feed the engine.
type FillSource struct {
	db    *Database
	query FillQuery
}

func (db *Database) FillSource(q FillQuery) FillSource {
	return FillSource{db: db, query: q}
}

func (s FillSource) Orders(ctx context.Context) iter.Seq2[types.FilledOrder, error] {
	return s.db.Orders(ctx, s.query)
}

func convertFill(row fillRow) (types.FilledOrder, error) {
	var intention any
	if row.Intention != nil {
		intention = *row.Intention
	}
	order, err := types.NewFilledOrder(row.Symbol, row.Quantity, row.Price, row.FilledAt, intention)
	if err != nil {
		return types.FilledOrder{}, fmt.Errorf("fill id %d: %w: %w", row.ID, ErrInvalidFill, err)
	}
	return order, nil
}
