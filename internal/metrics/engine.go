package metrics

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

// ftPossessionWeight discounts free-throw attempts in the possession
// estimate: roughly 44% of FT trips end a possession that had no other
// recorded live-ball outcome.
const ftPossessionWeight = 0.44

// TeamMetrics holds possession-normalized efficiency metrics over a window
// of games. GamesUsed may be less than requested when data is sparse; zero
// means "insufficient data", with every rate at its neutral 0 default.
type TeamMetrics struct {
	TeamID    int `json:"team_id"`
	GamesUsed int `json:"games_used"`

	OffensiveRating float64 `json:"offensive_rating"`
	DefensiveRating float64 `json:"defensive_rating"`
	NetRating       float64 `json:"net_rating"`
	Pace            float64 `json:"pace"`

	FGPct         float64 `json:"fg_pct"`
	ThreePct      float64 `json:"three_pct"`
	FTPct         float64 `json:"ft_pct"`
	ThreeRate     float64 `json:"three_rate"`
	FreeThrowRate float64 `json:"free_throw_rate"`

	OffRebPct float64 `json:"off_reb_pct"`
	DefRebPct float64 `json:"def_reb_pct"`

	TurnoversPerGame float64 `json:"turnovers_per_game"`
	TurnoverPct      float64 `json:"turnover_pct"`

	PointsFor     int `json:"points_for"`
	PointsAgainst int `json:"points_against"`
}

// Form is a team's derived win/loss record and scoring over a recent window.
// It is computed, never stored.
type Form struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	PointsFor     int `json:"points_for"`
	PointsAgainst int `json:"points_against"`
}

// totals accumulates one side's box-score aggregates across a window.
type totals struct {
	points, fgm, fga, fg3m, fg3a, ftm, fta int
	oreb, dreb, tov                        int
	possessions                            float64
}

func (t *totals) add(row bdl.StatRow) {
	t.points += row.Points.Int()
	t.fgm += row.FGM.Int()
	t.fga += row.FGA.Int()
	t.fg3m += row.FG3M.Int()
	t.fg3a += row.FG3A.Int()
	t.ftm += row.FTM.Int()
	t.fta += row.FTA.Int()
	t.oreb += row.OffReb.Int()
	t.dreb += row.DefReb.Int()
	t.tov += row.Turnover.Int()
}

// possessions estimates ball possessions from aggregates via the standard
// linear approximation: FGA - OREB + TOV + 0.44*FTA.
func possessions(fga, oreb, tov, fta int) float64 {
	return float64(fga) - float64(oreb) + float64(tov) + ftPossessionWeight*float64(fta)
}

// Engine derives team efficiency metrics from raw box-score aggregates.
type Engine struct {
	client *bdl.Client
	logger *logrus.Logger
}

// NewEngine creates an advanced metrics engine.
func NewEngine(client *bdl.Client, logger *logrus.Logger) *Engine {
	return &Engine{
		client: client,
		logger: logger,
	}
}

// TeamMetrics computes efficiency metrics for a team over the given games,
// batch-fetching all rows in one call and partitioning each game into team
// and opponent buckets by team id. Provider failure or an empty window
// yields GamesUsed == 0 with neutral rates, never an error: callers treat
// that as "insufficient data", not "team is at 0".
func (e *Engine) TeamMetrics(ctx context.Context, teamID int, games []bdl.Game) *TeamMetrics {
	m := &TeamMetrics{TeamID: teamID}
	if len(games) == 0 {
		return m
	}

	ids := make([]int, len(games))
	for i, g := range games {
		ids[i] = g.ID
	}

	rows, err := e.client.Stats(ctx, ids, nil)
	if err != nil {
		e.logger.WithError(err).WithField("team_id", teamID).
			Warn("metrics fetch failed, reporting insufficient data")
		return m
	}

	byGame := make(map[int][]bdl.StatRow)
	for _, row := range rows {
		byGame[row.Game.ID] = append(byGame[row.Game.ID], row)
	}

	var team, opp totals
	for _, gameID := range ids {
		var gTeam, gOpp totals
		teamRows, oppRows := 0, 0
		for _, row := range byGame[gameID] {
			if row.Team.ID == teamID {
				gTeam.add(row)
				teamRows++
			} else {
				gOpp.add(row)
				oppRows++
			}
		}
		// A game counts only when both sides produced rows; a one-sided
		// game would skew points-against and pace.
		if teamRows == 0 || oppRows == 0 {
			continue
		}

		gTeam.possessions = possessions(gTeam.fga, gTeam.oreb, gTeam.tov, gTeam.fta)
		gOpp.possessions = possessions(gOpp.fga, gOpp.oreb, gOpp.tov, gOpp.fta)

		team.points += gTeam.points
		team.fgm += gTeam.fgm
		team.fga += gTeam.fga
		team.fg3m += gTeam.fg3m
		team.fg3a += gTeam.fg3a
		team.ftm += gTeam.ftm
		team.fta += gTeam.fta
		team.oreb += gTeam.oreb
		team.dreb += gTeam.dreb
		team.tov += gTeam.tov
		team.possessions += gTeam.possessions

		opp.points += gOpp.points
		opp.oreb += gOpp.oreb
		opp.dreb += gOpp.dreb
		opp.possessions += gOpp.possessions

		m.GamesUsed++
	}

	if m.GamesUsed == 0 || team.possessions <= 0 {
		m.GamesUsed = 0
		return m
	}

	m.PointsFor = team.points
	m.PointsAgainst = opp.points

	m.OffensiveRating = 100 * float64(team.points) / team.possessions
	m.DefensiveRating = 100 * float64(opp.points) / team.possessions
	m.NetRating = m.OffensiveRating - m.DefensiveRating
	m.Pace = (team.possessions + opp.possessions) / (2 * float64(m.GamesUsed))

	m.FGPct = safeDiv(float64(team.fgm), float64(team.fga))
	m.ThreePct = safeDiv(float64(team.fg3m), float64(team.fg3a))
	m.FTPct = safeDiv(float64(team.ftm), float64(team.fta))
	m.ThreeRate = safeDiv(float64(team.fg3a), float64(team.fga))
	m.FreeThrowRate = safeDiv(float64(team.fta), float64(team.fga))

	m.OffRebPct = safeDiv(float64(team.oreb), float64(team.oreb+opp.dreb))
	m.DefRebPct = safeDiv(float64(team.dreb), float64(team.dreb+opp.oreb))

	m.TurnoversPerGame = float64(team.tov) / float64(m.GamesUsed)
	m.TurnoverPct = safeDiv(float64(team.tov), team.possessions)

	return m
}

// FormFromGames derives the win/loss record and scoring totals for a team
// from final game snapshots. Non-final games are skipped.
func FormFromGames(teamID int, games []bdl.Game) Form {
	var f Form
	for _, g := range games {
		if !g.IsFinal() {
			continue
		}
		own, their := g.HomeScore, g.VisitorScore
		if g.VisitorTeam.ID == teamID {
			own, their = their, own
		}
		f.PointsFor += own
		f.PointsAgainst += their
		if own > their {
			f.Wins++
		} else {
			f.Losses++
		}
	}
	return f
}

// safeDiv performs division with zero check.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
