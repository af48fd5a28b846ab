package bdl

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Team is a franchise in the stats provider's namespace. Team IDs here are
// provider-local and unrelated to any other provider's IDs.
type Team struct {
	ID           int    `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
}

// Player is a player record as returned by the search and roster endpoints.
type Player struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      Team   `json:"team"`
}

// FullName returns "First Last" for display and matching.
func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Game is a read-only schedule/score snapshot.
type Game struct {
	ID           int    `json:"id"`
	Date         string `json:"date"`
	Season       int    `json:"season"`
	Status       string `json:"status"`
	Postseason   bool   `json:"postseason"`
	HomeScore    int    `json:"home_team_score"`
	VisitorScore int    `json:"visitor_team_score"`
	HomeTeam     Team   `json:"home_team"`
	VisitorTeam  Team   `json:"visitor_team"`
}

// IsFinal reports whether the game has finished. The provider's status
// vocabulary is loose (a time string, a quarter label, "Final"); the only
// distinction that matters downstream is final vs not.
func (g Game) IsFinal() bool {
	return strings.EqualFold(strings.TrimSpace(g.Status), "Final")
}

// GameDate parses the provider's game date, which may be a bare date or a
// full UTC timestamp depending on endpoint vintage.
func (g Game) GameDate() time.Time {
	if t, err := time.Parse(time.RFC3339, g.Date); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", g.Date); err == nil {
		return t
	}
	return time.Time{}
}

// SafeInt decodes a numeric field that the provider may send as a number,
// a quoted number, or null. Absent and malformed values become 0 — box-score
// feeds routinely omit categories a player did not record, and a missing
// field must never abort a request.
type SafeInt int

func (v *SafeInt) UnmarshalJSON(b []byte) error {
	f, ok := parseLooseFloat(b)
	if !ok {
		*v = 0
		return nil
	}
	*v = SafeInt(int(f))
	return nil
}

// Int returns the plain int value.
func (v SafeInt) Int() int { return int(v) }

// SafeFloat is the float counterpart of SafeInt.
type SafeFloat float64

func (v *SafeFloat) UnmarshalJSON(b []byte) error {
	f, ok := parseLooseFloat(b)
	if !ok {
		*v = 0
		return nil
	}
	*v = SafeFloat(f)
	return nil
}

// Float returns the plain float64 value.
func (v SafeFloat) Float() float64 { return float64(v) }

func parseLooseFloat(b []byte) (float64, bool) {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	if s == "" || s == "null" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// StatRow is one player's box-score line for one game. All numeric fields
// normalize null/absent to zero at this boundary so consumers never need
// per-field guards.
type StatRow struct {
	ID       int       `json:"id"`
	Min      string    `json:"min"`
	Points   SafeInt   `json:"pts"`
	Rebounds SafeInt   `json:"reb"`
	OffReb   SafeInt   `json:"oreb"`
	DefReb   SafeInt   `json:"dreb"`
	Assists  SafeInt   `json:"ast"`
	Steals   SafeInt   `json:"stl"`
	Blocks   SafeInt   `json:"blk"`
	Turnover SafeInt   `json:"turnover"`
	FGM      SafeInt   `json:"fgm"`
	FGA      SafeInt   `json:"fga"`
	FG3M     SafeInt   `json:"fg3m"`
	FG3A     SafeInt   `json:"fg3a"`
	FTM      SafeInt   `json:"ftm"`
	FTA      SafeInt   `json:"fta"`
	FGPct    SafeFloat `json:"fg_pct"`
	FG3Pct   SafeFloat `json:"fg3_pct"`
	FTPct    SafeFloat `json:"ft_pct"`

	Player Player   `json:"player"`
	Team   Team     `json:"team"`
	Game   StatGame `json:"game"`
}

// StatGame is the abbreviated game object embedded in a stat row.
type StatGame struct {
	ID            int    `json:"id"`
	Date          string `json:"date"`
	Season        int    `json:"season"`
	Status        string `json:"status"`
	HomeTeamID    int    `json:"home_team_id"`
	VisitorTeamID int    `json:"visitor_team_id"`
	HomeScore     int    `json:"home_team_score"`
	VisitorScore  int    `json:"visitor_team_score"`
}

// DidNotPlay reports whether the row's minutes field carries a
// zero-equivalent value. Minutes are the sole authoritative DNP signal:
// other columns can hold stale nonzero values in the source feed.
func (r StatRow) DidNotPlay() bool {
	return IsZeroMinutes(r.Min)
}

// IsZeroMinutes reports whether a raw minutes string means "did not play".
func IsZeroMinutes(min string) bool {
	switch strings.TrimSpace(min) {
	case "", "0", "00", "0:00", "00:00":
		return true
	}
	return false
}

// ParseMinutes converts the provider's minutes string ("36", "35:42", "",
// null-as-empty) to fractional minutes. Unparseable input yields 0.
func ParseMinutes(min string) float64 {
	min = strings.TrimSpace(min)
	if min == "" {
		return 0
	}
	if i := strings.IndexByte(min, ':'); i >= 0 {
		m, err1 := strconv.ParseFloat(min[:i], 64)
		s, err2 := strconv.ParseFloat(min[i+1:], 64)
		if err1 != nil || err2 != nil {
			return 0
		}
		return m + s/60
	}
	m, err := strconv.ParseFloat(min, 64)
	if err != nil {
		return 0
	}
	return m
}

// Injury is a roster injury note.
type Injury struct {
	Player      Player `json:"player"`
	Status      string `json:"status"`
	ReturnDate  string `json:"return_date"`
	Description string `json:"description"`
}
