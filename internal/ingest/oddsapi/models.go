package oddsapi

import "time"

// Outcome is one side of a market. For player props, Description carries the
// player name and Point the line.
type Outcome struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Point       float64 `json:"point,omitempty"`
}

// Market is a named odds market offered by one bookmaker.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Bookmaker groups the markets one book offers for an event.
type Bookmaker struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Markets []Market `json:"markets"`
}

// Event is a listed game in the odds provider's namespace. Teams are
// identified by free-text name only; there is no key shared with the stats
// provider, so cross-referencing happens by normalized name and time.
type Event struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	CommenceTime time.Time   `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []Bookmaker `json:"bookmakers"`
}

// Market keys used by the engine.
const (
	MarketMoneyline = "h2h"
	MarketPoints    = "player_points"
	MarketRebounds  = "player_rebounds"
	MarketAssists   = "player_assists"
)
