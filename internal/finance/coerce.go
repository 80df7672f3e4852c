package finance

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParseAmount coerces a loosely typed API value into a decimal.
// Numbers, json.Number and strings using either '.' or ',' as the decimal
// separator are accepted; anything else, including unparsable text, is zero.
func ParseAmount(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case json.Number:
		return parseAmountString(string(n))
	case string:
		return parseAmountString(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		return ParseAmount(float64(n))
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	case int32:
		return decimal.NewFromInt(int64(n))
	default:
		return decimal.Zero
	}
}

func parseAmountString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero
	}

	// When both separators appear, the right-most one is the decimal mark.
	// A separator repeated on its own only groups thousands.
	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseDay coerces a loosely typed API value into a UTC calendar day.
// The calendar date is taken as written; timestamps are not shifted between
// zones, so "2024-01-02T23:30:00-05:00" is still January 2nd.
func ParseDay(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		if d.IsZero() {
			return time.Time{}, false
		}
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
	case string:
		return parseDayString(d)
	case json.Number:
		return parseDayString(string(d))
	default:
		return time.Time{}, false
	}
}

func parseDayString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= len(DayLayout) {
		if t, err := time.ParseInLocation(DayLayout, s[:len(DayLayout)], time.UTC); err == nil {
			return t, true
		}
	}
	if len(s) == 8 {
		if t, err := time.ParseInLocation("20060102", s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDay renders a calendar day the way bucket keys are rendered
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return string(s)
	case float64:
		return ParseAmount(s).String()
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	default:
		return ""
	}
}
