package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

// ErrPlayerNotFound is the terminal not-found condition: the candidate pool
// was empty after every lookup strategy.
var ErrPlayerNotFound = errors.New("no matching player found")

// Scoring weights. There is deliberately no confidence floor: a low-scoring
// best guess is still returned, and the caller gets the score to decide how
// to present it.
const (
	nameWeight = 0.7
	exactBonus = 0.25
	teamBonus  = 0.15
)

// Match is a resolved player with the score that selected it.
type Match struct {
	Player     bdl.Player
	Confidence float64
	Summary    string
}

// Resolver turns free-text player input into a canonical player record.
type Resolver struct {
	client *bdl.Client
	teams  *TeamIndex
	logger *logrus.Logger
}

// NewResolver creates a player resolver over a team index.
func NewResolver(client *bdl.Client, teams *TeamIndex, logger *logrus.Logger) *Resolver {
	return &Resolver{
		client: client,
		teams:  teams,
		logger: logger,
	}
}

// Resolve finds the single best-matching player for a free-text query. The
// input may contain a nickname, a "Last First" transposition, a team mention,
// or a misspelling. Scoring is a pure function of the input and candidate
// attributes, so repeated calls over the same pool return the same match.
func (r *Resolver) Resolve(ctx context.Context, input string) (*Match, error) {
	clean := r.teams.StripMentions(input)
	if clean == "" {
		clean = strings.ToLower(strings.TrimSpace(input))
	}

	candidates, err := r.gatherCandidates(ctx, clean)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", input, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("resolving %q: %w", input, ErrPlayerNotFound)
	}

	var best bdl.Player
	bestScore := -1.0
	for _, cand := range candidates {
		score := r.score(input, clean, cand)
		// Lower ID wins ties to keep selection deterministic.
		if score > bestScore || (score == bestScore && cand.ID < best.ID) {
			bestScore = score
			best = cand
		}
	}

	match := &Match{
		Player:     best,
		Confidence: bestScore,
		Summary: fmt.Sprintf("%s — %s, %s (confidence %.2f)",
			best.FullName(), orUnknown(best.Position), orUnknown(best.Team.FullName), bestScore),
	}

	r.logger.WithFields(logrus.Fields{
		"input":      input,
		"player":     best.FullName(),
		"confidence": fmt.Sprintf("%.2f", bestScore),
		"pool":       len(candidates),
	}).Info("resolved player")

	return match, nil
}

// gatherCandidates issues several broad lookups so the right player lands in
// the pool even when the query string is garbled: the cleaned string, its
// word-order reversal (catches "Last First"), and each individual word.
func (r *Resolver) gatherCandidates(ctx context.Context, clean string) ([]bdl.Player, error) {
	queries := []string{clean}

	words := strings.Fields(clean)
	if len(words) > 1 {
		reversed := make([]string, len(words))
		for i, w := range words {
			reversed[len(words)-1-i] = w
		}
		queries = append(queries, strings.Join(reversed, " "))
		for _, w := range words {
			if len(w) >= 3 {
				queries = append(queries, w)
			}
		}
	}

	seen := make(map[int]bool)
	var pool []bdl.Player
	var lastErr error
	failures := 0

	for _, q := range queries {
		players, err := r.client.SearchPlayers(ctx, q)
		if err != nil {
			failures++
			lastErr = err
			continue
		}
		for _, p := range players {
			if !seen[p.ID] {
				seen[p.ID] = true
				pool = append(pool, p)
			}
		}
	}

	// Only a total provider failure propagates; partial lookup failures
	// still leave a usable pool.
	if len(pool) == 0 && failures == len(queries) && lastErr != nil {
		return nil, lastErr
	}
	return pool, nil
}

func (r *Resolver) score(raw, clean string, cand bdl.Player) float64 {
	full := NormalizeName(cand.FullName())
	normClean := NormalizeName(clean)

	score := Ratio(normClean, full) * nameWeight
	if normClean == full {
		score += exactBonus
	}
	if t := r.teams.Mentioned(raw); t != nil && t.ID == cand.Team.ID {
		score += teamBonus
	}
	return score
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
