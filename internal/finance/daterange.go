package finance

import (
	"errors"
	"fmt"
	"time"
)

// DayLayout is the calendar-day format used for bucket keys and API filters
const DayLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	ErrInvalidDate   = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvertedRange = errors.New("from must not be after to")
)

// Basis selects which date and which figure attribute a document to a day
type Basis string

const (
	BasisAccrual Basis = "accrual"
	BasisCash    Basis = "cash"
)

// ParseBasis maps request input to a Basis; anything but "cash" is accrual
func ParseBasis(s string) Basis {
	if s == string(BasisCash) {
		return BasisCash
	}
	return BasisAccrual
}

// DateRange is an inclusive range of UTC calendar days
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange parses both bounds and rejects an inverted range
func NewDateRange(from, to string) (DateRange, error) {
	f, ok := ParseDay(from)
	if !ok {
		return DateRange{}, fmt.Errorf("from %q: %w", from, ErrInvalidDate)
	}
	t, ok := ParseDay(to)
	if !ok {
		return DateRange{}, fmt.Errorf("to %q: %w", to, ErrInvalidDate)
	}
	if f.After(t) {
		return DateRange{}, ErrInvertedRange
	}
	return DateRange{From: f, To: t}, nil
}

// Days returns the inclusive number of calendar days, never less than 1
func (r DateRange) Days() int {
	n := int(ordinal(r.To)-ordinal(r.From)) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Day returns the i-th calendar day of the range
func (r DateRange) Day(i int) time.Time {
	return r.From.AddDate(0, 0, i)
}

// Offset returns the bucket index of day, or false when it lies outside the range
func (r DateRange) Offset(day time.Time) (int, bool) {
	off := ordinal(day) - ordinal(r.From)
	if off < 0 || off >= int64(r.Days()) {
		return 0, false
	}
	return int(off), true
}

// Contains reports whether day falls within the range
func (r DateRange) Contains(day time.Time) bool {
	_, ok := r.Offset(day)
	return ok
}

// ordinal counts days since the unix epoch for a UTC-midnight time.
func ordinal(day time.Time) int64 {
	return floorDiv(day.Unix(), secondsPerDay)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
