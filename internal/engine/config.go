package engine

import (
	"tradeledger/types"

	"github.com/shopspring/decimal"
)

type SimulationConfig struct {
	initialCash decimal.Decimal
	policy      types.SettlementPolicy
	commission  types.CommissionModel
	calendar    types.Calendar
}

func NewSimulationConfig(initialCash decimal.Decimal, policy types.SettlementPolicy, commission types.CommissionModel, calendar types.Calendar) *SimulationConfig {
	if calendar == nil {
		calendar = types.WeekdayCalendar{}
	}
	return &SimulationConfig{
		initialCash: initialCash,
		policy:      policy,
		commission:  commission,
		calendar:    calendar,
	}
}

type CapitalConfig struct {
	initialCash decimal.Decimal
	policies    []types.SettlementPolicy
	commission  types.CommissionModel
	calendar    types.Calendar
}

func NewCapitalConfig(initialCash decimal.Decimal, commission types.CommissionModel, calendar types.Calendar, policies ...types.SettlementPolicy) *CapitalConfig {
	if calendar == nil {
		calendar = types.WeekdayCalendar{}
	}
	if len(policies) == 0 {
		policies = []types.SettlementPolicy{types.Idealized(), types.Margin(), types.Cash()}
	}
	return &CapitalConfig{
		initialCash: initialCash,
		policies:    policies,
		commission:  commission,
		calendar:    calendar,
	}
}

func (c *CapitalConfig) simulationConfig(policy types.SettlementPolicy) *SimulationConfig {
	return NewSimulationConfig(c.initialCash, policy, c.commission, c.calendar)
}

type ReportingConfig struct {
	printReport bool
	writeCSV    bool
	reportName  string
	filePath    string
}

func NewReportingConfig(printReport bool, writeCSV bool, reportName string, filePath string) *ReportingConfig {
	return &ReportingConfig{
		printReport: printReport,
		writeCSV:    writeCSV,
		reportName:  reportName,
		filePath:    filePath,
	}
}

type EngineConfig struct {
	capital   *CapitalConfig
	reporting *ReportingConfig
	quiet     bool
}

func NewEngineConfig(capital *CapitalConfig, reporting *ReportingConfig, quiet bool) *EngineConfig {
	if reporting == nil {
		reporting = NewReportingConfig(false, false, "", "")
	}
	return &EngineConfig{
		capital:   capital,
		reporting: reporting,
		quiet:     quiet,
	}
}
