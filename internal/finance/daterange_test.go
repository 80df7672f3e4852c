package finance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDateRange(t *testing.T) {
	t.Run("valid range", func(t *testing.T) {
		rng, err := NewDateRange("2024-01-01", "2024-01-03")
		require.NoError(t, err)
		assert.Equal(t, 3, rng.Days())
		assert.Equal(t, "2024-01-01", FormatDay(rng.From))
		assert.Equal(t, "2024-01-03", FormatDay(rng.To))
	})

	t.Run("single day", func(t *testing.T) {
		rng, err := NewDateRange("2024-02-29", "2024-02-29")
		require.NoError(t, err)
		assert.Equal(t, 1, rng.Days())
	})

	t.Run("invalid from", func(t *testing.T) {
		_, err := NewDateRange("yesterday", "2024-01-03")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("invalid to", func(t *testing.T) {
		_, err := NewDateRange("2024-01-01", "")
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("inverted", func(t *testing.T) {
		_, err := NewDateRange("2024-01-05", "2024-01-01")
		assert.ErrorIs(t, err, ErrInvertedRange)
	})
}

func TestDateRange_Offset(t *testing.T) {
	rng, err := NewDateRange("2023-12-31", "2024-01-02")
	require.NoError(t, err)

	day := func(s string) time.Time {
		d, ok := ParseDay(s)
		require.True(t, ok)
		return d
	}

	tests := []struct {
		day    string
		want   int
		wantOK bool
	}{
		{"2023-12-30", 0, false},
		{"2023-12-31", 0, true},
		{"2024-01-01", 1, true},
		{"2024-01-02", 2, true},
		{"2024-01-03", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.day, func(t *testing.T) {
			got, ok := rng.Offset(day(tt.day))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, rng.Contains(day(tt.day)))
		})
	}
}

func TestDateRange_BeforeEpoch(t *testing.T) {
	rng, err := NewDateRange("1969-12-30", "1970-01-02")
	require.NoError(t, err)
	assert.Equal(t, 4, rng.Days())

	d, _ := ParseDay("1969-12-31")
	off, ok := rng.Offset(d)
	assert.True(t, ok)
	assert.Equal(t, 1, off)
}

func TestParseBasis(t *testing.T) {
	assert.Equal(t, BasisCash, ParseBasis("cash"))
	assert.Equal(t, BasisAccrual, ParseBasis("accrual"))
	assert.Equal(t, BasisAccrual, ParseBasis(""))
	assert.Equal(t, BasisAccrual, ParseBasis("invoice"))
}
