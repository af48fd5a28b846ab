package websocket

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/ingest/oddsapi"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/report"
	"github.com/fortuna/courtside/internal/resolve"
	"github.com/fortuna/courtside/internal/rotation"
	"github.com/fortuna/courtside/internal/stats"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// newFakePipeline wires a pipeline against stub providers: one resolvable
// player, one finished game, one upcoming game.
func newFakePipeline(t *testing.T) *report.Pipeline {
	t.Helper()

	dal := bdl.Team{ID: 2, Abbreviation: "DAL", City: "Dallas", Name: "Mavericks", FullName: "Dallas Mavericks"}
	bos := bdl.Team{ID: 1, Abbreviation: "BOS", City: "Boston", Name: "Celtics", FullName: "Boston Celtics"}
	luka := bdl.Player{ID: 77, FirstName: "Luka", LastName: "Doncic", Position: "G", Team: dal}

	write := func(w http.ResponseWriter, data interface{}) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": data,
			"meta": map[string]interface{}{},
		})
	}
	statsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/players", "/players/active":
			write(w, []bdl.Player{luka})
		case "/games":
			write(w, []map[string]interface{}{
				{"id": 90, "date": "2026-01-18", "status": "Final",
					"home_team": dal, "visitor_team": bos,
					"home_team_score": 110, "visitor_team_score": 100},
				{"id": 91, "date": "2026-01-22", "status": "",
					"home_team": bos, "visitor_team": dal},
			})
		case "/stats":
			write(w, []map[string]interface{}{
				{"min": "36:30", "pts": 32, "reb": 8, "ast": 9, "fga": 25, "fgm": 12,
					"player": luka, "team": dal,
					"game": map[string]interface{}{"id": 90}},
			})
		default:
			write(w, []map[string]interface{}{})
		}
	}))
	t.Cleanup(statsServer.Close)

	oddsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]oddsapi.Event{{
			ID:           "ev1",
			CommenceTime: time.Now().Add(24 * time.Hour),
			HomeTeam:     "Boston Celtics",
			AwayTeam:     "Dallas Mavericks",
		}})
	}))
	t.Cleanup(oddsServer.Close)

	client := bdl.NewClient(statsServer.URL, "k", testLogger())
	oddsClient := oddsapi.NewClient(oddsServer.URL, "k", testLogger())
	teams := resolve.NewTeamIndex([]bdl.Team{dal, bos})

	return report.NewPipeline(
		client,
		resolve.NewResolver(client, teams, testLogger()),
		reconcile.NewReconciler(client, oddsClient, teams, testLogger()),
		stats.NewAggregator(client, testLogger()),
		metrics.NewEngine(client, testLogger()),
		rotation.NewAnalyzer(client, testLogger()),
		nil, nil, nil,
		testLogger(),
	)
}

func dialReport(t *testing.T, s *Server) *gws.Conn {
	t.Helper()
	httpServer := httptest.NewServer(http.HandlerFunc(s.handleReport))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/report"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestReportStreamFrameSequence(t *testing.T) {
	s := NewServer(newFakePipeline(t), testLogger())
	conn := dialReport(t, s)

	require.NoError(t, conn.WriteJSON(request{Player: "Luka Doncic"}))

	var stages []string
	var final frame
	for {
		var f frame
		require.NoError(t, conn.ReadJSON(&f))
		require.NotEqual(t, "error", f.Stage)
		if f.Stage == "report" {
			final = f
			break
		}
		stages = append(stages, f.Stage)
	}

	assert.Equal(t, "resolving player", stages[0])
	assert.Contains(t, stages, "reconciling schedule")
	assert.Contains(t, stages, "complete")

	require.NotNil(t, final.Report)
	assert.Equal(t, 77, final.Report.Player.ID)
	assert.NotEmpty(t, final.Report.GameLog)
}

func TestReportStreamMissingPlayer(t *testing.T) {
	s := NewServer(newFakePipeline(t), testLogger())
	conn := dialReport(t, s)

	require.NoError(t, conn.WriteJSON(request{}))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Stage)
	assert.Equal(t, "missing player", f.Error)
}

func TestReportStreamInvalidFrame(t *testing.T) {
	s := NewServer(newFakePipeline(t), testLogger())
	conn := dialReport(t, s)

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("not json")))

	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Stage)
}
