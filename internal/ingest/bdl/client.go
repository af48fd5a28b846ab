package bdl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// BaseURL for the stats provider's v1 API
	BaseURL = "https://api.balldontlie.io/v1"

	requestTimeout = 10 * time.Second

	// maxPages caps cursor-follow on batched endpoints so a misbehaving
	// cursor can't loop forever
	maxPages = 10
)

// Client handles stats provider API requests. The API key is injected at
// construction; the client never reads ambient credential state.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a stats provider client with a custom base URL.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

type page struct {
	Data json.RawMessage `json:"data"`
	Meta struct {
		NextCursor *int `json:"next_cursor"`
		PerPage    int  `json:"per_page"`
	} `json:"meta"`
}

// get fetches a single page and decodes its data array into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (*page, error) {
	u := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stats provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stats provider returned %d for %s: %s", resp.StatusCode, path, truncate(body, 200))
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding response for %s: %w", path, err)
	}
	if err := json.Unmarshal(p.Data, out); err != nil {
		return nil, fmt.Errorf("decoding data for %s: %w", path, err)
	}
	return &p, nil
}

// SearchPlayers issues a broad name search against the player endpoint.
func (c *Client) SearchPlayers(ctx context.Context, query string) ([]Player, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("per_page", "25")

	var players []Player
	if _, err := c.get(ctx, "/players", params, &players); err != nil {
		return nil, err
	}
	c.logger.WithFields(logrus.Fields{
		"query":      query,
		"candidates": len(players),
	}).Debug("player search")
	return players, nil
}

// ActiveRoster returns the current active players for a team.
func (c *Client) ActiveRoster(ctx context.Context, teamID int) ([]Player, error) {
	params := url.Values{}
	params.Add("team_ids[]", strconv.Itoa(teamID))
	params.Set("per_page", "100")

	var players []Player
	if _, err := c.get(ctx, "/players/active", params, &players); err != nil {
		return nil, err
	}
	return players, nil
}

// Teams returns the full franchise list. This is the candidate pool for all
// cross-provider name resolution.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	params := url.Values{}
	params.Set("per_page", "100")

	var teams []Team
	if _, err := c.get(ctx, "/teams", params, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// TeamGames returns a team's games in [start, end] across the given seasons,
// sorted ascending by date.
func (c *Client) TeamGames(ctx context.Context, teamID int, start, end time.Time, seasons []int) ([]Game, error) {
	params := url.Values{}
	params.Add("team_ids[]", strconv.Itoa(teamID))
	params.Set("start_date", start.Format("2006-01-02"))
	params.Set("end_date", end.Format("2006-01-02"))
	for _, s := range seasons {
		params.Add("seasons[]", strconv.Itoa(s))
	}
	params.Set("per_page", "100")

	var games []Game
	cursor := 0
	for i := 0; i < maxPages; i++ {
		if cursor > 0 {
			params.Set("cursor", strconv.Itoa(cursor))
		}
		var batch []Game
		p, err := c.get(ctx, "/games", params, &batch)
		if err != nil {
			return nil, err
		}
		games = append(games, batch...)
		if p.Meta.NextCursor == nil || len(batch) == 0 {
			break
		}
		cursor = *p.Meta.NextCursor
	}

	sort.Slice(games, func(i, j int) bool {
		return games[i].GameDate().Before(games[j].GameDate())
	})
	return games, nil
}

// Stats batch-fetches box-score rows for a game-id set, optionally filtered
// to specific players. One request per page, never one per game.
func (c *Client) Stats(ctx context.Context, gameIDs, playerIDs []int) ([]StatRow, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}

	params := url.Values{}
	for _, id := range gameIDs {
		params.Add("game_ids[]", strconv.Itoa(id))
	}
	for _, id := range playerIDs {
		params.Add("player_ids[]", strconv.Itoa(id))
	}
	params.Set("per_page", "100")

	var rows []StatRow
	cursor := 0
	for i := 0; i < maxPages; i++ {
		if cursor > 0 {
			params.Set("cursor", strconv.Itoa(cursor))
		}
		var batch []StatRow
		p, err := c.get(ctx, "/stats", params, &batch)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
		if p.Meta.NextCursor == nil || len(batch) == 0 {
			break
		}
		cursor = *p.Meta.NextCursor
	}

	c.logger.WithFields(logrus.Fields{
		"games":   len(gameIDs),
		"players": len(playerIDs),
		"rows":    len(rows),
	}).Debug("batched stats fetch")
	return rows, nil
}

// TeamInjuries returns the provider's injury report for a team.
func (c *Client) TeamInjuries(ctx context.Context, teamID int) ([]Injury, error) {
	params := url.Values{}
	params.Add("team_ids[]", strconv.Itoa(teamID))
	params.Set("per_page", "100")

	var injuries []Injury
	if _, err := c.get(ctx, "/player_injuries", params, &injuries); err != nil {
		return nil, err
	}
	return injuries, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
