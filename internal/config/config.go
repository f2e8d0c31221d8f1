// Package config loads the YAML run configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	"tradeledger/internal/engine"
	"tradeledger/types"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrNoSource = errors.New("no fill source configured")

type Config struct {
	Log struct {
		Development bool   `yaml:"development"`
		Level       string `yaml:"level"`
	} `yaml:"log"`

	Source struct {
		CSV         string   `yaml:"csv"`
		DatabaseURL string   `yaml:"database_url"`
		Symbols     []string `yaml:"symbols"`
		Start       string   `yaml:"start"`
		End         string   `yaml:"end"`
	} `yaml:"source"`

	Simulation struct {
		InitialCash string   `yaml:"initial_cash"`
		Calendar    string   `yaml:"calendar"`
		Policies    []string `yaml:"policies"`
		Commission  struct {
			PerOrder string `yaml:"commission_per_order"`
			PerShare string `yaml:"commission_per_share"`
			Slippage string `yaml:"slippage_per_share"`
		} `yaml:"commission"`
	} `yaml:"simulation"`

	Reporting struct {
		Print bool   `yaml:"print"`
		CSV   bool   `yaml:"csv"`
		Name  string `yaml:"name"`
		Dir   string `yaml:"dir"`
	} `yaml:"reporting"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Quiet bool `yaml:"quiet"`
}

func DefaultConfig() Config {
	var c Config
	c.Log.Level = "info"
	c.Simulation.InitialCash = "0"
	c.Simulation.Calendar = "weekdays"
	c.Simulation.Policies = []string{"idealized", "margin", "cash"}
	c.Simulation.Commission.PerOrder = "0"
	c.Simulation.Commission.PerShare = "0"
	c.Simulation.Commission.Slippage = "0"
	c.Reporting.Print = true
	c.Reporting.Name = "tradeledger"
	c.Reporting.Dir = "reports"
	c.Server.Addr = ":8080"
	return c
}

func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

// Parse overlays the YAML on top of DefaultConfig and validates the result.
func Parse(raw []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := c.InitialCash(); err != nil {
		return err
	}
	if _, err := c.Commission(); err != nil {
		return err
	}
	if _, err := c.Policies(); err != nil {
		return err
	}
	if _, err := types.ParseCalendar(c.Simulation.Calendar); err != nil {
		return err
	}
	if _, _, err := c.FillWindow(); err != nil {
		return err
	}
	return nil
}

// RequireSource is checked by batch runs; the HTTP server takes fills from requests.
func (c Config) RequireSource() error {
	if c.Source.CSV == "" && c.Source.DatabaseURL == "" {
		return ErrNoSource
	}
	return nil
}

func (c Config) InitialCash() (decimal.Decimal, error) {
	return parseDecimal("simulation.initial_cash", c.Simulation.InitialCash)
}

func (c Config) Commission() (types.CommissionModel, error) {
	perOrder, err := parseDecimal("commission_per_order", c.Simulation.Commission.PerOrder)
	if err != nil {
		return types.CommissionModel{}, err
	}
	perShare, err := parseDecimal("commission_per_share", c.Simulation.Commission.PerShare)
	if err != nil {
		return types.CommissionModel{}, err
	}
	slippage, err := parseDecimal("slippage_per_share", c.Simulation.Commission.Slippage)
	if err != nil {
		return types.CommissionModel{}, err
	}
	return types.NewCommissionModel(perOrder, perShare, slippage)
}

func (c Config) Policies() ([]types.SettlementPolicy, error) {
	policies := make([]types.SettlementPolicy, 0, len(c.Simulation.Policies))
	for _, name := range c.Simulation.Policies {
		p, err := types.ParseSettlementPolicy(name)
		if err != nil {
			return nil, fmt.Errorf("simulation.policies: %w", err)
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// FillWindow parses source.start and source.end as dates; either may be empty.
func (c Config) FillWindow() (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if c.Source.Start != "" {
		start, err = time.Parse(time.DateOnly, c.Source.Start)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid source.start: %w", err)
		}
	}
	if c.Source.End != "" {
		end, err = time.Parse(time.DateOnly, c.Source.End)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid source.end: %w", err)
		}
	}
	return start, end, nil
}

func (c Config) CapitalConfig() (*engine.CapitalConfig, error) {
	initialCash, err := c.InitialCash()
	if err != nil {
		return nil, err
	}
	commission, err := c.Commission()
	if err != nil {
		return nil, err
	}
	calendar, err := types.ParseCalendar(c.Simulation.Calendar)
	if err != nil {
		return nil, err
	}
	policies, err := c.Policies()
	if err != nil {
		return nil, err
	}
	return engine.NewCapitalConfig(initialCash, commission, calendar, policies...), nil
}

func (c Config) EngineConfig() (*engine.EngineConfig, error) {
	capital, err := c.CapitalConfig()
	if err != nil {
		return nil, err
	}
	reporting := engine.NewReportingConfig(c.Reporting.Print, c.Reporting.CSV, c.Reporting.Name, c.Reporting.Dir)
	return engine.NewEngineConfig(capital, reporting, c.Quiet), nil
}

func (c Config) Logger() (*zap.Logger, error) {
	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	if c.Log.Level != "" {
		level, err := zap.ParseAtomicLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
		zc.Level = level
	}
	return zc.Build()
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}
