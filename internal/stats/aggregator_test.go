package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

var (
	dal = bdl.Team{ID: 2, Abbreviation: "DAL", FullName: "Dallas Mavericks"}
	bos = bdl.Team{ID: 1, Abbreviation: "BOS", FullName: "Boston Celtics"}
)

func windowGames() []bdl.Game {
	return []bdl.Game{
		{ID: 101, Date: "2026-01-20", Status: "Final", HomeTeam: dal, VisitorTeam: bos},
		{ID: 102, Date: "2026-01-18", Status: "Final", HomeTeam: bos, VisitorTeam: dal},
		{ID: 103, Date: "2026-01-16", Status: "Final", HomeTeam: dal, VisitorTeam: bos},
	}
}

func statsServer(t *testing.T, rows []map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": rows,
			"meta": map[string]interface{}{},
		})
	}))
}

func TestGameLogOneEntryPerGame(t *testing.T) {
	rows := []map[string]interface{}{
		{"min": "36:30", "pts": 32, "reb": 8, "ast": 9, "turnover": 3, "fgm": 12, "fga": 25, "fg3m": 4, "fg3a": 9, "game": map[string]interface{}{"id": 101}},
		{"min": "00:00", "game": map[string]interface{}{"id": 102}},
		// game 103 has no row at all
	}
	server := statsServer(t, rows)
	defer server.Close()

	agg := NewAggregator(bdl.NewClient(server.URL, "k", testLogger()), testLogger())
	entries := agg.GameLog(context.Background(), 77, dal.ID, windowGames())

	require.Len(t, entries, 3, "exactly one entry per requested game")

	assert.True(t, entries[0].Played)
	assert.Equal(t, "[2026-01-20 vs BOS] 36:30 MIN | PTS:32 REB:8 AST:9 TO:3 FG:48.0% 3PT:4/9", entries[0].Line)

	assert.False(t, entries[1].Played, "zero minutes is a DNP regardless of other columns")
	assert.Equal(t, "[2026-01-18 @ BOS] DNP", entries[1].Line)
	assert.Nil(t, entries[1].Row)

	assert.False(t, entries[2].Played, "missing row is a DNP")
	assert.Contains(t, entries[2].Line, DNPMarker)
}

func TestGameLogNeverZeroFilledLines(t *testing.T) {
	// A 0-minute row with stale counting stats must render as DNP, not as a
	// 0-of-everything stat line.
	rows := []map[string]interface{}{
		{"min": "0:00", "pts": 14, "reb": 6, "game": map[string]interface{}{"id": 101}},
	}
	server := statsServer(t, rows)
	defer server.Close()

	agg := NewAggregator(bdl.NewClient(server.URL, "k", testLogger()), testLogger())
	entries := agg.GameLog(context.Background(), 77, dal.ID, windowGames()[:1])

	require.Len(t, entries, 1)
	assert.False(t, entries[0].Played)
	assert.NotContains(t, entries[0].Line, "PTS")
}

func TestGameLogBatchFailureDegradesToDNP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error": "upstream"}`)
	}))
	defer server.Close()

	agg := NewAggregator(bdl.NewClient(server.URL, "k", testLogger()), testLogger())
	entries := agg.GameLog(context.Background(), 77, dal.ID, windowGames())

	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.Played)
		assert.Contains(t, e.Line, DNPMarker)
	}
}

func TestGameLogEmptyWindow(t *testing.T) {
	agg := NewAggregator(bdl.NewClient("http://unreachable.invalid", "k", testLogger()), testLogger())
	entries := agg.GameLog(context.Background(), 77, dal.ID, nil)
	assert.Empty(t, entries)
}

func TestFormatLineMissingAttempts(t *testing.T) {
	rows := []map[string]interface{}{
		{"min": "21", "pts": 6, "fga": nil, "fgm": nil, "game": map[string]interface{}{"id": 101}},
	}
	server := statsServer(t, rows)
	defer server.Close()

	agg := NewAggregator(bdl.NewClient(server.URL, "k", testLogger()), testLogger())
	entries := agg.GameLog(context.Background(), 77, dal.ID, windowGames()[:1])

	require.Len(t, entries, 1)
	require.True(t, entries[0].Played)
	assert.Contains(t, entries[0].Line, "FG:0.0%")
}
