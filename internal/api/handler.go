package api

import (
	"errors"
	"net/http"
	"tradeledger/internal/engine"
	"tradeledger/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Handler struct {
	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{logger: logger}
}

type analyzeRequest struct {
	Orders      []types.FilledOrder   `json:"orders" binding:"required"`
	Policies    []string              `json:"policies"`
	InitialCash decimal.Decimal       `json:"initialCash"`
	Commission  types.CommissionModel `json:"commission"`
	Calendar    string                `json:"calendar"`
	// IncludeLedger adds the per policy ledger trace to the response.
	IncludeLedger bool `json:"includeLedger"`
}

type analyzeResponse struct {
	RunID         string                         `json:"runId"`
	Trades        []types.Trade                  `json:"trades"`
	OpenPositions []types.OpenPosition           `json:"openPositions"`
	Report        *types.PerformanceReport       `json:"report"`
	Capital       map[string]decimal.Decimal     `json:"capital"`
	Ledgers       map[string][]types.LedgerEntry `json:"ledgers,omitempty"`
}

// Analyze groups the posted fills and returns trades, performance and capital per policy.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	capitalConfig, err := req.capitalConfig()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	grouped, err := engine.GroupOrders(req.Orders)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, engine.ErrNonChronological) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	capital, err := engine.AnalyzeCapital(c.Request.Context(), grouped.Trades, capitalConfig)
	if errors.Is(err, engine.ErrDuplicatePolicy) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("Capital analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := analyzeResponse{
		RunID:         uuid.New().String(),
		Trades:        grouped.Trades,
		OpenPositions: grouped.Open,
		Capital:       capital.Requirements,
	}
	if resp.Trades == nil {
		resp.Trades = []types.Trade{}
	}
	if req.IncludeLedger {
		resp.Ledgers = capital.Ledgers
	}

	report, err := engine.AnalyzePerformance(grouped.Trades, req.Commission)
	switch {
	case errors.Is(err, engine.ErrNoTrades):
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	default:
		resp.Report = &report
	}

	h.logger.Info("Analyzed fills",
		zap.String("run_id", resp.RunID),
		zap.Int("fills", len(req.Orders)),
		zap.Int("trades", len(grouped.Trades)),
		zap.Int("open_positions", len(grouped.Open)),
	)
	c.JSON(http.StatusOK, resp)
}

func (r analyzeRequest) capitalConfig() (*engine.CapitalConfig, error) {
	if err := r.Commission.Validate(); err != nil {
		return nil, err
	}
	calendar, err := types.ParseCalendar(r.Calendar)
	if err != nil {
		return nil, err
	}
	policies := make([]types.SettlementPolicy, 0, len(r.Policies))
	for _, name := range r.Policies {
		p, err := types.ParseSettlementPolicy(name)
		if err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return engine.NewCapitalConfig(r.InitialCash, r.Commission, calendar, policies...), nil
}
