package resolve

import (
	"strings"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

// TeamIndex resolves team identity across providers. Team IDs are
// provider-local, so every cross-provider lookup goes through normalized
// names — never numeric equality.
type TeamIndex struct {
	teams []bdl.Team
}

// NewTeamIndex builds an index over the stats provider's franchise list.
func NewTeamIndex(teams []bdl.Team) *TeamIndex {
	return &TeamIndex{teams: teams}
}

// Teams returns the underlying candidate pool.
func (ix *TeamIndex) Teams() []bdl.Team {
	return ix.teams
}

// aliases returns the name fragments under which a team may appear in free
// text: full name, city, nickname, abbreviation.
func aliases(t bdl.Team) []string {
	return []string{t.FullName, t.City, t.Name, t.Abbreviation}
}

// StripMentions removes any team alias substrings from a free-text query,
// leaving a cleaner player-name fragment. Longer aliases are removed first
// so "Dallas Mavericks" doesn't leave a dangling "Mavericks".
func (ix *TeamIndex) StripMentions(input string) string {
	cleaned := strings.ToLower(input)
	for pass := 0; pass < 2; pass++ {
		for _, t := range ix.teams {
			for _, alias := range aliases(t) {
				alias = strings.ToLower(alias)
				if len(alias) < 3 {
					continue
				}
				// First pass strips multi-word aliases, second the rest.
				if pass == 0 && !strings.Contains(alias, " ") {
					continue
				}
				cleaned = strings.ReplaceAll(cleaned, alias, " ")
			}
		}
	}
	return strings.Join(strings.Fields(cleaned), " ")
}

// Mentioned returns the team whose name, city, or abbreviation literally
// appears in the raw input, or nil.
func (ix *TeamIndex) Mentioned(input string) *bdl.Team {
	lower := strings.ToLower(input)
	words := strings.Fields(lower)
	for i := range ix.teams {
		t := &ix.teams[i]
		if strings.Contains(lower, strings.ToLower(t.FullName)) ||
			strings.Contains(lower, strings.ToLower(t.City)) ||
			strings.Contains(lower, strings.ToLower(t.Name)) {
			return t
		}
		for _, w := range words {
			if strings.EqualFold(w, t.Abbreviation) {
				return t
			}
		}
	}
	return nil
}

// ResolveName maps a team name from another provider's namespace into the
// stats provider's, returning the best match and its similarity score. A
// substring hit against any alias counts as an exact match.
func (ix *TeamIndex) ResolveName(name string) (bdl.Team, float64, bool) {
	if len(ix.teams) == 0 {
		return bdl.Team{}, 0, false
	}

	norm := NormalizeName(name)
	var best bdl.Team
	bestScore := -1.0

	for _, t := range ix.teams {
		score := 0.0
		for _, alias := range aliases(t) {
			a := NormalizeName(alias)
			if a == "" {
				continue
			}
			if strings.Contains(norm, a) || strings.Contains(a, norm) {
				score = 1
				break
			}
			if r := Ratio(norm, a); r > score {
				score = r
			}
		}
		if score > bestScore {
			bestScore = score
			best = t
		}
	}
	return best, bestScore, true
}
