package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/cache"
	"github.com/fortuna/courtside/internal/ingest/bdl"
	"github.com/fortuna/courtside/internal/metrics"
	"github.com/fortuna/courtside/internal/reconcile"
	"github.com/fortuna/courtside/internal/resolve"
	"github.com/fortuna/courtside/internal/rotation"
	"github.com/fortuna/courtside/internal/stats"
)

const (
	// DefaultWindow is the recent-game window for logs, metrics, and rotation
	DefaultWindow = 10

	// formLookbackDays bounds the backward search for finished games
	formLookbackDays = 60

	// reportTTL is how long an assembled report (narrative included) stays
	// cached; providers are re-fetched on every miss
	reportTTL = 15 * time.Minute
)

// Generator is the opaque narrative capability: prompt text in, best-effort
// prose out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Newswire is the optional headline source for prompt color.
type Newswire interface {
	Headlines(ctx context.Context, query string) ([]string, error)
}

// Report is the single structured result handed to the display layer and the
// narrative generator. Every field degrades independently: a provider
// failure leaves an explicit placeholder, never a missing report.
type Report struct {
	Query       string    `json:"query"`
	GeneratedAt time.Time `json:"generated_at"`

	Player     bdl.Player `json:"player"`
	Confidence float64    `json:"confidence"`
	Summary    string     `json:"summary"`

	NextGame *reconcile.NextGame `json:"next_game,omitempty"`

	TeamForm     metrics.Form         `json:"team_form"`
	GameLog      []stats.LogEntry     `json:"game_log"`
	TeamMetrics  *metrics.TeamMetrics `json:"team_metrics,omitempty"`
	OppMetrics   *metrics.TeamMetrics `json:"opp_metrics,omitempty"`
	Rotation     []rotation.PlayerLine `json:"rotation,omitempty"`
	OppRotation  []rotation.PlayerLine `json:"opp_rotation,omitempty"`
	InjuryNotes  []string             `json:"injury_notes,omitempty"`
	Headlines    []string             `json:"headlines,omitempty"`

	Narrative string `json:"narrative,omitempty"`
}

// Options tunes a single pipeline run.
type Options struct {
	Window    int
	Narrative bool
}

// Progress receives human-readable stage updates during a run.
type Progress func(stage string)

// Pipeline wires the resolver, reconciler, aggregator, metrics engine, and
// rotation analyzer into one strictly sequential run per request. Each
// invocation owns its data; nothing here is shared mutable state.
type Pipeline struct {
	bdl        *bdl.Client
	resolver   *resolve.Resolver
	reconciler *reconcile.Reconciler
	aggregator *stats.Aggregator
	engine     *metrics.Engine
	rotation   *rotation.Analyzer
	newswire   Newswire
	generator  Generator
	cache      *cache.RedisCache
	logger     *logrus.Logger
	now        func() time.Time
}

// NewPipeline assembles the report pipeline. newswire, generator, and
// reportCache may be nil; the pipeline degrades without them.
func NewPipeline(
	bdlClient *bdl.Client,
	resolver *resolve.Resolver,
	reconciler *reconcile.Reconciler,
	aggregator *stats.Aggregator,
	engine *metrics.Engine,
	analyzer *rotation.Analyzer,
	newswire Newswire,
	generator Generator,
	reportCache *cache.RedisCache,
	logger *logrus.Logger,
) *Pipeline {
	return &Pipeline{
		bdl:        bdlClient,
		resolver:   resolver,
		reconciler: reconciler,
		aggregator: aggregator,
		engine:     engine,
		rotation:   analyzer,
		newswire:   newswire,
		generator:  generator,
		cache:      reportCache,
		logger:     logger,
		now:        time.Now,
	}
}

// Run produces a full matchup report for a free-text player query. Only an
// unresolvable player is terminal; every later stage degrades to an explicit
// placeholder and the run continues.
func (p *Pipeline) Run(ctx context.Context, query string, opts Options) (*Report, error) {
	return p.RunWithProgress(ctx, query, opts, nil)
}

// RunWithProgress is Run with stage callbacks for streaming consumers.
func (p *Pipeline) RunWithProgress(ctx context.Context, query string, opts Options, progress Progress) (*Report, error) {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	notify := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	notify("resolving player")
	match, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	cacheKey := p.cacheKey(match.Player.ID, opts)
	if p.cache != nil {
		var cached Report
		if ok, err := p.cache.GetJSON(ctx, cacheKey, &cached); err == nil && ok {
			p.logger.WithField("key", cacheKey).Debug("report cache hit")
			notify("complete")
			return &cached, nil
		}
	}

	rpt := &Report{
		Query:       query,
		GeneratedAt: p.now(),
		Player:      match.Player,
		Confidence:  match.Confidence,
		Summary:     match.Summary,
	}
	team := match.Player.Team

	notify("reconciling schedule")
	next, err := p.reconciler.NextGame(ctx, team, match.Player)
	if err != nil {
		p.logger.WithError(err).WithField("team", team.FullName).Warn("no next game reconciled")
	} else {
		rpt.NextGame = next
	}

	notify("fetching recent games")
	recent := p.recentFinishedGames(ctx, team.ID, opts.Window)
	rpt.TeamForm = metrics.FormFromGames(team.ID, recent)

	notify("building game log")
	rpt.GameLog = p.aggregator.GameLog(ctx, match.Player.ID, team.ID, recent)

	notify("computing efficiency metrics")
	rpt.TeamMetrics = p.engine.TeamMetrics(ctx, team.ID, recent)

	notify("analyzing rotation")
	rpt.Rotation = p.rotation.Rotation(ctx, team.ID, recent)

	if next != nil && next.Opponent.ID != 0 {
		oppRecent := p.recentFinishedGames(ctx, next.Opponent.ID, opts.Window)
		rpt.OppMetrics = p.engine.TeamMetrics(ctx, next.Opponent.ID, oppRecent)
		rpt.OppRotation = p.rotation.Rotation(ctx, next.Opponent.ID, oppRecent)
	}

	notify("collecting injury notes")
	rpt.InjuryNotes = p.injuryNotes(ctx, team.ID)

	if p.newswire != nil {
		if headlines, err := p.newswire.Headlines(ctx, match.Player.FullName()+" "+team.Name); err != nil {
			p.logger.WithError(err).Debug("headline scrape failed")
		} else {
			rpt.Headlines = headlines
		}
	}

	if opts.Narrative && p.generator != nil {
		notify("generating narrative")
		prompt := BuildPrompt(rpt)
		if text, err := p.generator.Generate(ctx, prompt); err != nil {
			p.logger.WithError(err).Warn("narrative generation failed")
		} else {
			rpt.Narrative = text
		}
	}

	if p.cache != nil {
		if err := p.cache.SetJSON(ctx, cacheKey, rpt, reportTTL); err != nil {
			p.logger.WithError(err).Debug("report cache write failed")
		}
	}

	notify("complete")
	return rpt, nil
}

// recentFinishedGames returns the team's last n final games, newest first.
// Any failure yields an empty window and downstream "insufficient data"
// placeholders.
func (p *Pipeline) recentFinishedGames(ctx context.Context, teamID, n int) []bdl.Game {
	end := p.now()
	start := end.AddDate(0, 0, -formLookbackDays)

	games, err := p.bdl.TeamGames(ctx, teamID, start, end, bdl.SeasonsFor(end))
	if err != nil {
		p.logger.WithError(err).WithField("team_id", teamID).Warn("recent games fetch failed")
		return nil
	}

	var finished []bdl.Game
	for _, g := range games {
		if g.IsFinal() {
			finished = append(finished, g)
		}
	}
	if len(finished) > n {
		finished = finished[len(finished)-n:]
	}
	// Newest first for display and trend reading.
	for i, j := 0, len(finished)-1; i < j; i, j = i+1, j-1 {
		finished[i], finished[j] = finished[j], finished[i]
	}
	return finished
}

// injuryNotes formats the provider's injury report, degrading to an explicit
// placeholder on failure.
func (p *Pipeline) injuryNotes(ctx context.Context, teamID int) []string {
	injuries, err := p.bdl.TeamInjuries(ctx, teamID)
	if err != nil {
		p.logger.WithError(err).Debug("injury fetch failed")
		return []string{"No injury data"}
	}
	if len(injuries) == 0 {
		return []string{"No reported injuries"}
	}

	notes := make([]string, 0, len(injuries))
	for _, inj := range injuries {
		note := fmt.Sprintf("%s — %s", inj.Player.FullName(), inj.Status)
		if desc := strings.TrimSpace(inj.Description); desc != "" {
			note += ": " + desc
		}
		notes = append(notes, note)
	}
	return notes
}

func (p *Pipeline) cacheKey(playerID int, opts Options) string {
	return fmt.Sprintf("courtside:report:%d:%d:%t:%s",
		playerID, opts.Window, opts.Narrative, p.now().Format("2006-01-02"))
}
