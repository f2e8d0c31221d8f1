package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownCalendar = errors.New("unknown calendar")

// Calendar decides which days count for settlement and usage bucketing.
type Calendar interface {
	IsTradingDay(day time.Time) bool
}

// WeekdayCalendar trades Monday to Friday. Exchange holidays are not modelled.
type WeekdayCalendar struct{}

func (WeekdayCalendar) IsTradingDay(day time.Time) bool {
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ContinuousCalendar trades every day, for markets that never close.
type ContinuousCalendar struct{}

func (ContinuousCalendar) IsTradingDay(time.Time) bool {
	return true
}

// Day truncates t to its calendar date, expressed in UTC so dates from
// different locations compare equal.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RollForward returns day itself when it trades, otherwise the next trading day.
func RollForward(cal Calendar, day time.Time) time.Time {
	day = Day(day)
	for i := 0; i < 7 && !cal.IsTradingDay(day); i++ {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func NextTradingDay(cal Calendar, day time.Time) time.Time {
	return RollForward(cal, Day(day).AddDate(0, 0, 1))
}

func AddTradingDays(cal Calendar, day time.Time, n int) time.Time {
	day = RollForward(cal, day)
	for i := 0; i < n; i++ {
		day = NextTradingDay(cal, day)
	}
	return day
}

// ParseCalendar accepts weekdays (the default when empty) or continuous.
func ParseCalendar(name string) (Calendar, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "weekdays":
		return WeekdayCalendar{}, nil
	case "continuous":
		return ContinuousCalendar{}, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownCalendar)
}
