package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonths_ClampsDay(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		want  time.Time
	}{
		{"plain", date(2025, 1, 15), 1, date(2025, 2, 15)},
		{"jan 31 to feb", date(2025, 1, 31), 1, date(2025, 2, 28)},
		{"jan 31 to leap feb", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"jan 31 to mar", date(2025, 1, 31), 2, date(2025, 3, 31)},
		{"year rollover", date(2025, 11, 30), 3, date(2026, 2, 28)},
		{"leap day plus a year", date(2024, 2, 29), 12, date(2025, 2, 28)},
		{"zero", date(2025, 5, 5), 0, date(2025, 5, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddMonths(tt.start, tt.n))
		})
	}
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, DaysBetween(date(2025, 3, 1), date(2025, 3, 1)))
	assert.Equal(t, 31, DaysBetween(date(2025, 3, 1), date(2025, 4, 1)))
	assert.Equal(t, -1, DaysBetween(date(2025, 3, 2), date(2025, 3, 1)))

	local := time.FixedZone("UTC-4", -4*3600)
	evening := time.Date(2025, 3, 1, 22, 0, 0, 0, local)
	assert.Equal(t, 1, DaysBetween(evening, date(2025, 3, 2)))
}

func TestParseAndFormatDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), d)
	assert.Equal(t, "2025-02-28", FormatDate(d))

	_, err = ParseDate("28/02/2025")
	assert.Error(t, err)

	assert.Nil(t, FormatOptionalDate(nil))
	assert.Equal(t, "2025-02-28", *FormatOptionalDate(&d))
}

func TestParseOwnerKind(t *testing.T) {
	for _, s := range []string{"client", "policy", "claim"} {
		k, err := ParseOwnerKind(s)
		require.NoError(t, err)
		assert.Equal(t, OwnerKind(s), k)
	}

	_, err := ParseOwnerKind("installment")
	assert.Error(t, err)

	assert.Equal(t, "policy/7", OwnerRef{Kind: OwnerPolicy, ID: 7}.String())
}
