package stats

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

// DNPMarker is the explicit did-not-play entry in a game log. Unplayed games
// never render as zero-valued stat lines: zeros are indistinguishable from a
// real 0-of-everything appearance and would corrupt trend narratives built
// downstream.
const DNPMarker = "DNP"

// LogEntry is one game in a player's log: either a played line with
// well-formed numeric fields, or exactly the DNP marker. Never a hybrid.
type LogEntry struct {
	Game   bdl.Game     `json:"game"`
	Played bool         `json:"played"`
	Line   string       `json:"line"`
	Row    *bdl.StatRow `json:"row,omitempty"`
}

// Aggregator builds per-game logs from batched box-score retrieval.
type Aggregator struct {
	client *bdl.Client
	logger *logrus.Logger
}

// NewAggregator creates a stats aggregator.
func NewAggregator(client *bdl.Client, logger *logrus.Logger) *Aggregator {
	return &Aggregator{
		client: client,
		logger: logger,
	}
}

// GameLog returns exactly one entry per requested game for the player,
// fetched with a single batched call rather than one request per game. A
// batch failure degrades every entry to DNP so the pipeline can continue.
func (a *Aggregator) GameLog(ctx context.Context, playerID, teamID int, games []bdl.Game) []LogEntry {
	rowsByGame := make(map[int]bdl.StatRow)

	if len(games) > 0 {
		ids := make([]int, len(games))
		for i, g := range games {
			ids[i] = g.ID
		}

		rows, err := a.client.Stats(ctx, ids, []int{playerID})
		if err != nil {
			a.logger.WithError(err).WithField("player_id", playerID).
				Warn("batched stats fetch failed, logging window as DNP")
		}
		for _, row := range rows {
			rowsByGame[row.Game.ID] = row
		}
	}

	entries := make([]LogEntry, 0, len(games))
	for _, game := range games {
		entry := LogEntry{Game: game}
		row, ok := rowsByGame[game.ID]
		if ok && !row.DidNotPlay() {
			entry.Played = true
			entry.Row = &row
			entry.Line = formatLine(game, teamID, row)
		} else {
			entry.Line = fmt.Sprintf("[%s %s] %s", shortDate(game), opponentTag(game, teamID), DNPMarker)
		}
		entries = append(entries, entry)
	}
	return entries
}

// formatLine renders a played game as a compact log line. Shooting
// percentage is computed defensively: absent attempts render as 0.0%, never
// an error.
func formatLine(game bdl.Game, teamID int, row bdl.StatRow) string {
	fgPct := 0.0
	if row.FGA.Int() > 0 {
		fgPct = float64(row.FGM.Int()) / float64(row.FGA.Int()) * 100
	} else if row.FGPct.Float() > 0 {
		fgPct = row.FGPct.Float() * 100
	}

	return fmt.Sprintf("[%s %s] %s MIN | PTS:%d REB:%d AST:%d TO:%d FG:%.1f%% 3PT:%d/%d",
		shortDate(game),
		opponentTag(game, teamID),
		row.Min,
		row.Points.Int(),
		row.Rebounds.Int(),
		row.Assists.Int(),
		row.Turnover.Int(),
		fgPct,
		row.FG3M.Int(),
		row.FG3A.Int(),
	)
}

// opponentTag renders "vs BOS" or "@ BOS" from the team's locus in the game.
func opponentTag(game bdl.Game, teamID int) string {
	if game.HomeTeam.ID == teamID {
		return "vs " + game.VisitorTeam.Abbreviation
	}
	return "@ " + game.HomeTeam.Abbreviation
}

func shortDate(game bdl.Game) string {
	d := game.GameDate()
	if d.IsZero() {
		return game.Date
	}
	return d.Format("2006-01-02")
}
