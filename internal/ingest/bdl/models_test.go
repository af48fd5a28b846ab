package bdl

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeIntDecoding(t *testing.T) {
	var row struct {
		Pts SafeInt `json:"pts"`
		Reb SafeInt `json:"reb"`
		Ast SafeInt `json:"ast"`
		Blk SafeInt `json:"blk"`
	}

	raw := `{"pts": 32, "reb": null, "ast": "9", "blk": "bad"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	assert.Equal(t, 32, row.Pts.Int())
	assert.Equal(t, 0, row.Reb.Int(), "null becomes zero")
	assert.Equal(t, 9, row.Ast.Int(), "quoted numbers decode")
	assert.Equal(t, 0, row.Blk.Int(), "malformed values become zero")
}

func TestSafeIntAbsentField(t *testing.T) {
	var row StatRow
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "pts": 20}`), &row))

	assert.Equal(t, 20, row.Points.Int())
	assert.Equal(t, 0, row.Rebounds.Int())
	assert.Equal(t, 0, row.FTA.Int())
}

func TestSafeFloatDecoding(t *testing.T) {
	var row struct {
		FGPct  SafeFloat `json:"fg_pct"`
		FG3Pct SafeFloat `json:"fg3_pct"`
		FTPct  SafeFloat `json:"ft_pct"`
	}

	raw := `{"fg_pct": 0.48, "fg3_pct": null, "ft_pct": "0.875"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	assert.InDelta(t, 0.48, row.FGPct.Float(), 1e-9)
	assert.Zero(t, row.FG3Pct.Float())
	assert.InDelta(t, 0.875, row.FTPct.Float(), 1e-9)
}

func TestIsZeroMinutes(t *testing.T) {
	tests := []struct {
		min  string
		want bool
	}{
		{"", true},
		{"0", true},
		{"00", true},
		{"0:00", true},
		{"00:00", true},
		{" 00:00 ", true},
		{"1", false},
		{"36", false},
		{"35:42", false},
		{"0:01", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsZeroMinutes(tt.min), "min=%q", tt.min)
	}
}

func TestDidNotPlayIgnoresOtherColumns(t *testing.T) {
	// Stale feeds can leave nonzero counting stats on a 0-minute row.
	var row StatRow
	raw := `{"min": "00:00", "pts": 12, "reb": 5}`
	require.NoError(t, json.Unmarshal([]byte(raw), &row))

	assert.True(t, row.DidNotPlay())
}

func TestParseMinutes(t *testing.T) {
	tests := []struct {
		min  string
		want float64
	}{
		{"36", 36},
		{"35:42", 35.7},
		{"0:30", 0.5},
		{"", 0},
		{"garbage", 0},
		{"12:xx", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, ParseMinutes(tt.min), 1e-9, "min=%q", tt.min)
	}
}

func TestGameIsFinal(t *testing.T) {
	assert.True(t, Game{Status: "Final"}.IsFinal())
	assert.True(t, Game{Status: " final "}.IsFinal())
	assert.False(t, Game{Status: "3rd Qtr"}.IsFinal())
	assert.False(t, Game{Status: "7:30 pm ET"}.IsFinal())
	assert.False(t, Game{Status: ""}.IsFinal())
}

func TestGameDate(t *testing.T) {
	g := Game{Date: "2026-01-15T00:00:00.000Z"}
	assert.Equal(t, 2026, g.GameDate().Year())
	assert.Equal(t, time.January, g.GameDate().Month())

	g = Game{Date: "2026-01-15"}
	assert.Equal(t, 15, g.GameDate().Day())

	g = Game{Date: "not a date"}
	assert.True(t, g.GameDate().IsZero())
}

func TestPlayerFullName(t *testing.T) {
	assert.Equal(t, "Luka Doncic", Player{FirstName: "Luka", LastName: "Doncic"}.FullName())
	assert.Equal(t, "Nene", Player{FirstName: "Nene"}.FullName())
}
