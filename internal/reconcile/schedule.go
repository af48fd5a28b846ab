package reconcile

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/ingest/oddsapi"
	"github.com/fortuna/courtside/internal/resolve"
)

// ErrNoUpcomingGame means neither provider could produce a next matchup.
var ErrNoUpcomingGame = errors.New("no upcoming game found")

const (
	// lookAheadDays bounds the forward schedule window
	lookAheadDays = 14

	// DefaultBookmaker is the preferred source for player-prop lines
	DefaultBookmaker = "draftkings"
)

// Moneyline is one bookmaker's price on one side of the matchup.
type Moneyline struct {
	Bookmaker string  `json:"bookmaker"`
	Team      string  `json:"team"`
	Price     float64 `json:"price"`
}

// PropLine is a player prop quote from a single bookmaker.
type PropLine struct {
	Bookmaker string  `json:"bookmaker"`
	Market    string  `json:"market"`
	Side      string  `json:"side"`
	Line      float64 `json:"line"`
	Price     float64 `json:"price"`
}

// NextGame is the reconciled next matchup for a team. The stats provider is
// authoritative for opponent identity when it has the game; the odds
// provider's commence time is authoritative for the countdown because it
// carries exact tip-off where the stats side often has only a date.
type NextGame struct {
	Team               bdl.Team       `json:"team"`
	Opponent           bdl.Team       `json:"opponent"`
	OpponentBestEffort bool           `json:"opponent_best_effort"`
	Home               bool           `json:"home"`
	TipOff             time.Time      `json:"tip_off"`
	StatsGame          *bdl.Game      `json:"stats_game,omitempty"`
	OddsEvent          *oddsapi.Event `json:"odds_event,omitempty"`
	Moneylines         []Moneyline    `json:"moneylines,omitempty"`
	Props              []PropLine     `json:"props,omitempty"`
}

// Matchup renders "vs Boston Celtics" / "@ Boston Celtics".
func (n *NextGame) Matchup() string {
	locus := "@"
	if n.Home {
		locus = "vs"
	}
	return fmt.Sprintf("%s %s", locus, n.Opponent.FullName)
}

// Reconciler merges the two providers' views of a team's schedule.
type Reconciler struct {
	stats         *bdl.Client
	odds          *oddsapi.Client
	teams         *resolve.TeamIndex
	logger        *logrus.Logger
	preferredBook string
	now           func() time.Time
}

// NewReconciler creates a schedule reconciler.
func NewReconciler(stats *bdl.Client, odds *oddsapi.Client, teams *resolve.TeamIndex, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		stats:         stats,
		odds:          odds,
		teams:         teams,
		logger:        logger,
		preferredBook: DefaultBookmaker,
		now:           time.Now,
	}
}

// NextGame determines the authoritative next matchup for a team and attaches
// the odds provider's markets for it, scoping prop lines to the given player.
// Either provider may fail or disagree; the result degrades rather than the
// call aborting, and only a double miss returns ErrNoUpcomingGame.
func (r *Reconciler) NextGame(ctx context.Context, team bdl.Team, player bdl.Player) (*NextGame, error) {
	next := &NextGame{Team: team}

	statsGame, err := r.nextStatsGame(ctx, team)
	if err != nil {
		r.logger.WithError(err).WithField("team", team.FullName).Warn("stats provider schedule lookup failed")
	}
	if statsGame != nil {
		next.StatsGame = statsGame
		next.Home = statsGame.HomeTeam.ID == team.ID
		if next.Home {
			next.Opponent = statsGame.VisitorTeam
		} else {
			next.Opponent = statsGame.HomeTeam
		}
		next.TipOff = statsGame.GameDate()
	}

	event, err := r.findOddsEvent(ctx, team)
	if err != nil {
		r.logger.WithError(err).WithField("team", team.FullName).Warn("odds provider lookup failed")
	}
	if event != nil {
		next.OddsEvent = event
		// Exact tip-off beats the stats provider's bare date.
		next.TipOff = event.CommenceTime
		next.Moneylines = extractMoneylines(event)

		if next.StatsGame == nil {
			// Schedule miss (season start, timezone skew): derive the
			// opponent from the odds matchup and map the name back into
			// the stats namespace.
			oppName := event.AwayTeam
			if r.matchesTeam(event.AwayTeam, team) {
				oppName = event.HomeTeam
				next.Home = false
			} else {
				next.Home = true
			}
			if opp, score, ok := r.teams.ResolveName(oppName); ok {
				next.Opponent = opp
				next.OpponentBestEffort = true
				r.logger.WithFields(logrus.Fields{
					"odds_name": oppName,
					"resolved":  opp.FullName,
					"score":     fmt.Sprintf("%.2f", score),
				}).Info("opponent derived from odds provider")
			}
		}

		if player.LastName != "" {
			if props, err := r.playerProps(ctx, event.ID, player); err != nil {
				r.logger.WithError(err).Debug("player props unavailable")
			} else {
				next.Props = props
			}
		}
	}

	if next.Opponent.ID == 0 && next.OddsEvent == nil {
		return nil, ErrNoUpcomingGame
	}
	return next, nil
}

// nextStatsGame returns the first non-final game in the forward window.
func (r *Reconciler) nextStatsGame(ctx context.Context, team bdl.Team) (*bdl.Game, error) {
	start := r.now()
	end := start.AddDate(0, 0, lookAheadDays)

	games, err := r.stats.TeamGames(ctx, team.ID, start, end, bdl.SeasonsFor(start))
	if err != nil {
		return nil, err
	}
	for i := range games {
		if games[i].IsFinal() {
			// A final game is never "upcoming", whatever its date says.
			continue
		}
		return &games[i], nil
	}
	return nil, nil
}

// findOddsEvent picks the listed event involving the team, preferring the
// nearest future commence time and falling back to the nearest event in
// either direction — odds feeds may lag or list only live games.
func (r *Reconciler) findOddsEvent(ctx context.Context, team bdl.Team) (*oddsapi.Event, error) {
	events, err := r.odds.Events(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	var bestFuture, bestAny *oddsapi.Event
	var futureGap, anyGap time.Duration = math.MaxInt64, math.MaxInt64

	for i := range events {
		ev := &events[i]
		if !r.matchesTeam(ev.HomeTeam, team) && !r.matchesTeam(ev.AwayTeam, team) {
			continue
		}
		gap := ev.CommenceTime.Sub(now)
		abs := gap
		if abs < 0 {
			abs = -abs
		}
		if gap >= 0 && gap < futureGap {
			futureGap = gap
			bestFuture = ev
		}
		if abs < anyGap {
			anyGap = abs
			bestAny = ev
		}
	}

	if bestFuture != nil {
		return bestFuture, nil
	}
	return bestAny, nil
}

// matchesTeam checks an odds-namespace team name against a stats-namespace
// team by normalized substring containment.
func (r *Reconciler) matchesTeam(oddsName string, team bdl.Team) bool {
	n := resolve.NormalizeName(oddsName)
	for _, alias := range []string{team.FullName, team.Name, team.City} {
		a := resolve.NormalizeName(alias)
		if a != "" && (strings.Contains(n, a) || strings.Contains(a, n)) {
			return true
		}
	}
	return false
}

// extractMoneylines collects h2h outcomes from every bookmaker present.
func extractMoneylines(ev *oddsapi.Event) []Moneyline {
	var lines []Moneyline
	for _, book := range ev.Bookmakers {
		for _, market := range book.Markets {
			if market.Key != oddsapi.MarketMoneyline {
				continue
			}
			for _, out := range market.Outcomes {
				lines = append(lines, Moneyline{
					Bookmaker: book.Title,
					Team:      out.Name,
					Price:     out.Price,
				})
			}
		}
	}
	return lines
}

// playerProps pulls prop lines for the player from the preferred bookmaker,
// falling back to whichever book responded first. Scoping is by last-name
// containment against the outcome description.
func (r *Reconciler) playerProps(ctx context.Context, eventID string, player bdl.Player) ([]PropLine, error) {
	event, err := r.odds.EventProps(ctx, eventID, nil)
	if err != nil {
		return nil, err
	}
	if len(event.Bookmakers) == 0 {
		return nil, nil
	}

	book := event.Bookmakers[0]
	for _, b := range event.Bookmakers {
		if strings.EqualFold(b.Key, r.preferredBook) {
			book = b
			break
		}
	}

	last := strings.ToLower(player.LastName)
	var props []PropLine
	for _, market := range book.Markets {
		for _, out := range market.Outcomes {
			if !strings.Contains(strings.ToLower(out.Description), last) {
				continue
			}
			props = append(props, PropLine{
				Bookmaker: book.Title,
				Market:    market.Key,
				Side:      out.Name,
				Line:      out.Point,
				Price:     out.Price,
			})
		}
	}
	return props, nil
}
