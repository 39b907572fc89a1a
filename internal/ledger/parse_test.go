package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"64,5", 64.5, true},
		{" 1 234,75 л", 1234.75, true},
		{"1 050", 1050, true},
		{"-3.25", -3.25, true},
		{"≈ 40", 40, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestParseEngineHours(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"812:30", 812.5, true},
		{"10:15:36", 10.26, true},
		{"812,5", 812.5, true},
		{"5,5", 132, true}, // days
		{"4", 4, true},     // 96h is not above 100, so hours
		{"31", 31, true},
		{"ab:cd", 0, false},
		{"1:2:3:4", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseEngineHours(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}
}

func TestFormatLiters(t *testing.T) {
	assert.Equal(t, "35", FormatLiters(35))
	assert.Equal(t, "15,56", FormatLiters(15.556))
	assert.Equal(t, "0", FormatLiters(0))
}

func TestCleanNames(t *testing.T) {
	// "й" composed vs decomposed must collapse to one entry.
	composed := "\u0410\u043d\u0434\u0440\u0456\u0439"
	decomposed := "\u0410\u043d\u0434\u0440\u0456\u0438\u0306"
	got := CleanNames([]string{" " + composed + " ", "", "Петро", decomposed, "Петро"})
	assert.Equal(t, []string{composed, "Петро"}, got)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "A", ColumnName(1))
	assert.Equal(t, "Q", ColumnName(17))
	assert.Equal(t, "Z", ColumnName(26))
	assert.Equal(t, "AA", ColumnName(27))
	assert.Equal(t, "AE", ColumnName(31))
	assert.Equal(t, "N12", A1(12, ColRefuelLiters))
}

func TestParseDateCell(t *testing.T) {
	want := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"2026-05-04",
		"04.05.2026",
		"4.5.2026",
		"04.05.26",
		"04/05/2026",
		"04.05",
		"4",
		"46146",
		"46146,0",
	} {
		got, ok := ParseDateCell(in, time.May, 2026)
		require.True(t, ok, in)
		assert.True(t, SameDate(want, got), "%s -> %s", in, got)
	}

	for _, in := range []string{"", "ДАТА", "date", "32.05.2026", "31.02.2026", "12345", "пн"} {
		_, ok := ParseDateCell(in, time.May, 2026)
		assert.False(t, ok, in)
	}

	_, ok := ParseDateCell("4", 0, 2026)
	assert.False(t, ok, "bare day needs a month tab")
}

func TestMonthTabs(t *testing.T) {
	assert.Equal(t, "ТРАВЕНЬ", MonthTabName(time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)))

	for tab, want := range map[string]time.Month{
		"травень": time.May,
		"МАЙ":     time.May,
		"May":     time.May,
		"ГРУДЕНЬ": time.December,
	} {
		got, ok := MonthFromTab(tab)
		require.True(t, ok, tab)
		assert.Equal(t, want, got, tab)
	}
	_, ok := MonthFromTab("ПОДІЇ")
	assert.False(t, ok)
}
