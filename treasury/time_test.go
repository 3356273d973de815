package treasury_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/treasury-engine/treasury"
)

func TestDate_Validate(t *testing.T) {
	for _, ok := range []string{"2025-01-01", "2024-02-29", "1999-12-31"} {
		assert.NoError(t, treasury.Date(ok).Validate(), ok)
	}
	for _, bad := range []string{"", "2025-1-01", "2025-01-1", "2025/01/01", "2025-13-01", "2023-02-29", "2025-01-01T00:00:00Z"} {
		assert.ErrorIs(t, treasury.Date(bad).Validate(), treasury.ErrMalformedDate, bad)
	}
}

func TestDate_Helpers(t *testing.T) {
	d, err := treasury.ParseDate("2025-01-31")
	require.NoError(t, err)

	assert.Equal(t, treasury.Month("2025-01"), d.Month())
	assert.Equal(t, treasury.Date("2025-02-01"), d.AddDays(1))
	assert.Equal(t, treasury.NewDate(2025, time.January, 31), d)
	assert.True(t, d.Before("2025-02-01"))
	assert.True(t, d.After("2025-01-30"))
}

func TestMonth_Navigation(t *testing.T) {
	m := treasury.NewMonth(2025, time.January)

	assert.Equal(t, treasury.Month("2024-12"), m.Previous())
	assert.Equal(t, treasury.Month("2025-02"), m.Next())
	assert.Equal(t, 2025, m.Year())
	assert.Equal(t, treasury.DateRange{Start: "2025-01-01", End: "2025-01-31"}, m.Range())
	assert.Equal(t, treasury.Date("2024-02-29"), treasury.Month("2024-02").End())

	_, err := treasury.ParseMonth("2025-00")
	assert.ErrorIs(t, err, treasury.ErrMalformedPeriod)
}

func TestDateRange(t *testing.T) {
	r, err := treasury.NewDateRange("2025-01-01", "2025-01-01")
	require.NoError(t, err)
	assert.True(t, r.Contains("2025-01-01"))
	assert.False(t, r.Contains("2025-01-02"))

	_, err = treasury.NewDateRange("2025-01-02", "2025-01-01")
	assert.ErrorIs(t, err, treasury.ErrInvalidRange)

	_, err = treasury.NewDateRange("2025-01-02", "soon")
	assert.ErrorIs(t, err, treasury.ErrMalformedDate)
}
