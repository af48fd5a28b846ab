package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/stats"
)

func sampleReport() *Report {
	dal := bdl.Team{ID: 2, FullName: "Dallas Mavericks"}
	bos := bdl.Team{ID: 1, FullName: "Boston Celtics"}
	return &Report{
		Query:   "luka doncic",
		Player:  bdl.Player{ID: 77, FirstName: "Luka", LastName: "Doncic", Position: "G", Team: dal},
		Summary: "Luka Doncic — G, Dallas Mavericks (confidence 0.95)",
		NextGame: &reconcile.NextGame{
			Team:     dal,
			Opponent: bos,
			Home:     true,
			TipOff:   time.Date(2026, 1, 21, 0, 30, 0, 0, time.UTC),
			Moneylines: []reconcile.Moneyline{
				{Bookmaker: "DraftKings", Team: "Dallas Mavericks", Price: -150},
			},
			Props: []reconcile.PropLine{
				{Bookmaker: "DraftKings", Market: "player_points", Side: "Over", Line: 32.5, Price: -110},
			},
		},
		TeamForm: metrics.Form{Wins: 7, Losses: 3, PointsFor: 1150, PointsAgainst: 1100},
		GameLog: []stats.LogEntry{
			{Played: true, Line: "[2026-01-18 vs BOS] 36:30 MIN | PTS:32 REB:8 AST:9 TO:3 FG:48.0% 3PT:4/9"},
			{Played: false, Line: "[2026-01-16 @ MIA] DNP"},
		},
		TeamMetrics: &metrics.TeamMetrics{
			GamesUsed: 10, OffensiveRating: 118.2, DefensiveRating: 112.4,
			NetRating: 5.8, Pace: 98.3, FGPct: 0.481, ThreePct: 0.371, TurnoverPct: 0.129,
		},
		OppMetrics: &metrics.TeamMetrics{
			GamesUsed: 10, OffensiveRating: 120.1, DefensiveRating: 110.9, NetRating: 9.2, Pace: 99.0,
		},
		InjuryNotes: []string{"Kyrie Irving — Out: ankle sprain"},
		Headlines:   []string{"Doncic drops 40 in win over Celtics"},
	}
}

func TestBuildPromptSections(t *testing.T) {
	prompt := BuildPrompt(sampleReport())

	assert.Contains(t, prompt, "Luka Doncic")
	assert.Contains(t, prompt, "NEXT GAME: Dallas Mavericks vs Boston Celtics")
	assert.Contains(t, prompt, "LINE: DraftKings Dallas Mavericks -150")
	assert.Contains(t, prompt, "PROP: DraftKings player_points Over 32.5 (-110)")
	assert.Contains(t, prompt, "TEAM FORM (last 10): 7-3")
	assert.Contains(t, prompt, "RECENT GAME LOG:")
	assert.Contains(t, prompt, "DNP")
	assert.Contains(t, prompt, "TEAM EFFICIENCY (last 10): ORtg 118.2, DRtg 112.4, Net +5.8")
	assert.Contains(t, prompt, "OPPONENT EFFICIENCY (last 10)")
	assert.Contains(t, prompt, "INJURIES:\nKyrie Irving — Out: ankle sprain")
	assert.Contains(t, prompt, "RECENT HEADLINES:\nDoncic drops 40")
	assert.Contains(t, prompt, "under 200 words")
}

func TestBuildPromptDegradedInputs(t *testing.T) {
	r := &Report{
		Player:      bdl.Player{FirstName: "Luka", LastName: "Doncic"},
		Summary:     "Luka Doncic — N/A, N/A (confidence 0.42)",
		TeamMetrics: &metrics.TeamMetrics{GamesUsed: 0},
	}
	prompt := BuildPrompt(r)

	assert.Contains(t, prompt, "NEXT GAME: No data")
	assert.Contains(t, prompt, "RECENT GAME LOG:\nNo data")
	assert.Contains(t, prompt, "TEAM EFFICIENCY: insufficient data")
	assert.Contains(t, prompt, "INJURIES:\nNo data")
	assert.NotContains(t, prompt, "RECENT HEADLINES")
	assert.NotContains(t, prompt, "ORtg 0.0", "zeroed ratings must read as missing, not as zero")
}

func TestBuildPromptBestEffortOpponentCaveat(t *testing.T) {
	r := sampleReport()
	r.NextGame.OpponentBestEffort = true
	prompt := BuildPrompt(r)

	assert.Contains(t, prompt, "best-effort")
}
