package types

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrUndefinedMetric marks a statistic whose denominator is zero.
var ErrUndefinedMetric = errors.New("metric is undefined")

type MetricKind int

const (
	MetricFinite MetricKind = iota
	MetricPositiveInfinity
	MetricUndefined
)

// Metric is a ratio that may legitimately be infinite or undefined.
type Metric struct {
	Value decimal.Decimal
	Kind  MetricKind
}

func FiniteMetric(v decimal.Decimal) Metric {
	return Metric{Value: v, Kind: MetricFinite}
}

func InfiniteMetric() Metric {
	return Metric{Kind: MetricPositiveInfinity}
}

func UndefinedMetric() Metric {
	return Metric{Kind: MetricUndefined}
}

func (m Metric) IsFinite() bool {
	return m.Kind == MetricFinite
}

func (m Metric) IsInfinite() bool {
	return m.Kind == MetricPositiveInfinity
}

func (m Metric) IsUndefined() bool {
	return m.Kind == MetricUndefined
}

func (m Metric) String() string {
	switch m.Kind {
	case MetricPositiveInfinity:
		return "+Inf"
	case MetricUndefined:
		return "undefined"
	default:
		return m.Value.String()
	}
}

// MarshalJSON writes finite values like decimal does, infinity as "+Inf" and undefined as null.
func (m Metric) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MetricPositiveInfinity:
		return []byte(`"+Inf"`), nil
	case MetricUndefined:
		return []byte("null"), nil
	default:
		return m.Value.MarshalJSON()
	}
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*m = UndefinedMetric()
		return nil
	case `"+Inf"`:
		*m = InfiniteMetric()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = FiniteMetric(v)
	return nil
}
