package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDayMonth(t *testing.T) {
	tests := []struct {
		token string
		month int
		day   int
		fails bool
	}{
		// both <= 12: month-first default
		{token: "11/10", month: 11, day: 10},
		{token: "5/6", month: 5, day: 6},
		// a field over 12 forces the day side
		{token: "25/2", month: 2, day: 25},
		{token: "2/25", month: 2, day: 25},
		{token: "40/50", fails: true},
		{token: "11", fails: true},
		{token: "a/b", fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			month, day, err := parseDayMonth(tt.token)
			if tt.fails {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.month, month)
			assert.Equal(t, tt.day, day)
		})
	}
}

func TestParseDateRange(t *testing.T) {
	ref := time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC)

	t.Run("month-first tie break on both endpoints", func(t *testing.T) {
		start, end, err := ParseDateRange("11/10 08:00:00 ~ 11/20 08:00:00", ref)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC), end)
	})

	t.Run("day over twelve forces day-first", func(t *testing.T) {
		start, _, err := ParseDateRange("25/2 00:00:00 ~ 28/2 23:59:59", ref)
		require.NoError(t, err)
		assert.Equal(t, time.February, start.Month())
		assert.Equal(t, 25, start.Day())
	})

	t.Run("bare dates without clock", func(t *testing.T) {
		start, end, err := ParseDateRange("3/1 ~ 3/31", ref)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), end)
	})

	t.Run("range crossing new year extends the end", func(t *testing.T) {
		start, end, err := ParseDateRange("12/20 ~ 1/10", ref)
		require.NoError(t, err)
		assert.Equal(t, 2025, start.Year())
		assert.Equal(t, 2026, end.Year())
	})

	t.Run("missing separator fails", func(t *testing.T) {
		_, _, err := ParseDateRange("11/10 08:00:00", ref)
		assert.Error(t, err)
	})
}

func TestInRange(t *testing.T) {
	start := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 20, 8, 0, 0, 0, time.UTC)

	assert.True(t, InRange(start, start, end), "inclusive start")
	assert.True(t, InRange(end, start, end), "inclusive end")
	assert.True(t, InRange(start.Add(time.Hour), start, end))
	assert.False(t, InRange(start.Add(-time.Second), start, end))
	assert.False(t, InRange(end.Add(time.Second), start, end))
}
