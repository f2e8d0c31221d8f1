package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrUnknownSettlementPolicy = errors.New("unknown settlement policy")
	ErrNegativeSettlementDelay = errors.New("settlement delay must not be negative")
)

type SettlementKind string

const (
	SettlementIdealized SettlementKind = "IDEALIZED"
	SettlementMargin    SettlementKind = "MARGIN"
	SettlementCash      SettlementKind = "CASH"
	SettlementCustom    SettlementKind = "CUSTOM"
)

// SettlementPolicy says how many trading days pass before sale proceeds can be reused.
type SettlementPolicy struct {
	Name      string         `json:"name"`
	Kind      SettlementKind `json:"kind"`
	DelayDays int            `json:"delayDays"`
}

// Idealized reuses proceeds immediately (T+0).
func Idealized() SettlementPolicy {
	return SettlementPolicy{Name: "idealized", Kind: SettlementIdealized, DelayDays: 0}
}

// Margin models a margin account (T+1).
func Margin() SettlementPolicy {
	return SettlementPolicy{Name: "margin", Kind: SettlementMargin, DelayDays: 1}
}

// Cash models a cash account (T+2).
func Cash() SettlementPolicy {
	return SettlementPolicy{Name: "cash", Kind: SettlementCash, DelayDays: 2}
}

func Custom(delayDays int) SettlementPolicy {
	return SettlementPolicy{Name: fmt.Sprintf("t+%d", delayDays), Kind: SettlementCustom, DelayDays: delayDays}
}

// ParseSettlementPolicy accepts idealized, margin, cash or t+N.
func ParseSettlementPolicy(s string) (SettlementPolicy, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "idealized", "t+0":
		return Idealized(), nil
	case "margin":
		return Margin(), nil
	case "cash":
		return Cash(), nil
	}
	if rest, ok := strings.CutPrefix(name, "t+"); ok {
		days, err := strconv.Atoi(rest)
		if err != nil {
			return SettlementPolicy{}, fmt.Errorf("%q: %w", s, ErrUnknownSettlementPolicy)
		}
		p := Custom(days)
		if err := p.Validate(); err != nil {
			return SettlementPolicy{}, err
		}
		return p, nil
	}
	return SettlementPolicy{}, fmt.Errorf("%q: %w", s, ErrUnknownSettlementPolicy)
}

func (p SettlementPolicy) Validate() error {
	if p.DelayDays < 0 {
		return fmt.Errorf("%s delay %d: %w", p.Name, p.DelayDays, ErrNegativeSettlementDelay)
	}
	switch p.Kind {
	case SettlementIdealized, SettlementMargin, SettlementCash, SettlementCustom:
		return nil
	}
	return fmt.Errorf("%q: %w", p.Kind, ErrUnknownSettlementPolicy)
}

// SettlementDate is the trading day on which proceeds of a trade closed at t become usable.
func (p SettlementPolicy) SettlementDate(cal Calendar, t time.Time) time.Time {
	return AddTradingDays(cal, t, p.DelayDays)
}

func (p SettlementPolicy) String() string {
	return p.Name
}
