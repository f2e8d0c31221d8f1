package engine

import (
	"context"
	"errors"
	"io"
	"os"
	"time"
	"tradeledger/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Engine struct {
	source OrderSource
	config *EngineConfig
	logger *zap.Logger
	out    io.Writer
}

// Result is everything one run produced.
type Result struct {
	RunID   string
	Fills   int
	Trades  []types.Trade
	Open    []types.OpenPosition
	Report  *types.PerformanceReport // nil when no trade closed
	Capital *CapitalReport
	Files   []string
}

func NewEngine(source OrderSource, config *EngineConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source: source,
		config: config,
		logger: logger,
		out:    os.Stdout,
	}
}

func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String()}
	log := e.logger.With(zap.String("run_id", result.RunID))
	log.Info("Starting trade ledger run")

	// Group the fills into round trips
	grouped, fills, err := replay(ctx, e.source, e.config.quiet)
	if err != nil {
		log.Error("Replaying fills failed", zap.Int("fills", fills), zap.Error(err))
		return nil, err
	}
	result.Fills = fills
	result.Trades = grouped.Trades
	result.Open = grouped.Open
	for _, open := range grouped.Open {
		log.Warn("Position still open at end of stream",
			zap.String("symbol", open.Symbol),
			zap.String("quantity", open.Quantity.String()),
			zap.String("avg_cost", open.AvgCost.String()),
			zap.String("unrealized_pl", open.UnrealizedPL().String()),
			zap.Int("fills", len(open.Orders)),
		)
	}

	// Capital per settlement policy
	capital, err := AnalyzeCapital(ctx, grouped.Trades, e.config.capital)
	if err != nil {
		log.Error("Capital analysis failed", zap.Error(err))
		return nil, err
	}
	result.Capital = capital
	for _, p := range capital.Policies {
		log.Info("Required capital",
			zap.String("policy", p.Name),
			zap.String("capital", capital.Requirements[p.Name].String()),
		)
	}

	// Performance, which is undefined without trades
	report, err := AnalyzePerformance(grouped.Trades, e.config.capital.commission)
	switch {
	case errors.Is(err, ErrNoTrades):
		log.Warn("No closed trades, skipping performance report")
	case err != nil:
		return nil, err
	default:
		result.Report = &report
	}

	if e.config.reporting.printReport {
		if result.Report != nil {
			PrintReport(e.out, *result.Report)
		}
		PrintCapital(e.out, capital)
	}
	if e.config.reporting.writeCSV {
		files, err := writeReports(e.config.reporting.filePath, e.config.reporting.reportName, result.RunID, grouped.Trades, capital)
		if err != nil {
			log.Error("Writing reports failed", zap.Error(err))
			return nil, err
		}
		result.Files = files
	}

	log.Info("Trade ledger run completed",
		zap.Int("fills", fills),
		zap.Int("trades", len(grouped.Trades)),
		zap.Int("open_positions", len(grouped.Open)),
		zap.Duration("execution_time", time.Since(start)),
	)
	return result, nil
}
