package rotation

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

// starterCount is the number of top-minutes players labeled as starters.
const starterCount = 5

// PlayerLine is one player's averaged production over the games in which
// they recorded nonzero minutes. DNPs never dilute the averages.
type PlayerLine struct {
	PlayerID    int     `json:"player_id"`
	Name        string  `json:"name"`
	Position    string  `json:"position"`
	GamesPlayed int     `json:"games_played"`
	AvgMinutes  float64 `json:"avg_minutes"`
	AvgPoints   float64 `json:"avg_points"`
	AvgRebounds float64 `json:"avg_rebounds"`
	AvgAssists  float64 `json:"avg_assists"`
	AvgThrees   float64 `json:"avg_threes"`
	Starter     bool    `json:"starter"`
}

// Analyzer classifies a team's deployed players into starters and bench.
type Analyzer struct {
	client *bdl.Client
	logger *logrus.Logger
}

// NewAnalyzer creates a rotation analyzer.
func NewAnalyzer(client *bdl.Client, logger *logrus.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logger,
	}
}

type accum struct {
	player                                  bdl.Player
	games                                   int
	minutes, points, rebounds, assists, m3s float64
}

// Rotation batch-fetches box scores for the game set, keeps rows belonging
// to the target team with nonzero minutes, and returns per-player averages
// sorted descending by average minutes with the top five marked as starters.
// Any failure degrades to an empty table.
func (a *Analyzer) Rotation(ctx context.Context, teamID int, games []bdl.Game) []PlayerLine {
	if len(games) == 0 {
		return nil
	}

	ids := make([]int, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}

	rows, err := a.client.Stats(ctx, ids, nil)
	if err != nil {
		a.logger.WithError(err).WithField("team_id", teamID).Warn("rotation fetch failed")
		return nil
	}

	byPlayer := make(map[int]*accum)
	for _, row := range rows {
		if row.Team.ID != teamID || row.DidNotPlay() {
			continue
		}
		acc, ok := byPlayer[row.Player.ID]
		if !ok {
			acc = &accum{player: row.Player}
			byPlayer[row.Player.ID] = acc
		}
		acc.games++
		acc.minutes += bdl.ParseMinutes(row.Min)
		acc.points += float64(row.Points.Int())
		acc.rebounds += float64(row.Rebounds.Int())
		acc.assists += float64(row.Assists.Int())
		acc.m3s += float64(row.FG3M.Int())
	}
	if len(byPlayer) == 0 {
		return nil
	}

	// Names and positions come from the live roster when available; rows
	// keep working for players who have since left the team.
	roster := make(map[int]bdl.Player)
	if players, err := a.client.ActiveRoster(ctx, teamID); err == nil {
		for _, p := range players {
			roster[p.ID] = p
		}
	} else {
		a.logger.WithError(err).Debug("roster lookup failed, using box-score names")
	}

	lines := make([]PlayerLine, 0, len(byPlayer))
	for id, acc := range byPlayer {
		n := float64(acc.games)
		p := acc.player
		if live, ok := roster[id]; ok {
			p = live
		}
		lines = append(lines, PlayerLine{
			PlayerID:    id,
			Name:        p.FullName(),
			Position:    p.Position,
			GamesPlayed: acc.games,
			AvgMinutes:  acc.minutes / n,
			AvgPoints:   acc.points / n,
			AvgRebounds: acc.rebounds / n,
			AvgAssists:  acc.assists / n,
			AvgThrees:   acc.m3s / n,
		})
	}

	sort.Slice(lines, func(i, j int) bool {
		if lines[i].AvgMinutes != lines[j].AvgMinutes {
			return lines[i].AvgMinutes > lines[j].AvgMinutes
		}
		return lines[i].PlayerID < lines[j].PlayerID
	})

	for i := range lines {
		lines[i].Starter = i < starterCount
	}
	return lines
}
