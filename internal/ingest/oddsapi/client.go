package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// BaseURL for the odds provider's v4 API
	BaseURL = "https://api.the-odds-api.com/v4"

	// SportNBA is the sport key for NBA markets
	SportNBA = "basketball_nba"

	requestTimeout = 10 * time.Second
)

// Client handles odds provider API requests with an injected key.
type Client struct {
	baseURL    string
	apiKey     string
	sport      string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an odds provider client with a custom base URL.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		sport:   SportNBA,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("apiKey", c.apiKey)
	u := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("odds provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("odds provider returned %d for %s: %s", resp.StatusCode, path, truncate(body, 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response for %s: %w", path, err)
	}
	return nil
}

// Events returns all currently listed NBA events with moneyline markets from
// every responding bookmaker.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	params := url.Values{}
	params.Set("regions", "us")
	params.Set("markets", MarketMoneyline)
	params.Set("oddsFormat", "american")

	var events []Event
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/odds", c.sport), params, &events); err != nil {
		return nil, err
	}
	c.logger.WithField("events", len(events)).Debug("odds events fetch")
	return events, nil
}

// EventProps returns a single event with player-prop markets attached.
func (c *Client) EventProps(ctx context.Context, eventID string, markets []string) (*Event, error) {
	if len(markets) == 0 {
		markets = []string{MarketPoints, MarketRebounds, MarketAssists}
	}

	params := url.Values{}
	params.Set("regions", "us")
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")

	var event Event
	if err := c.get(ctx, fmt.Sprintf("/sports/%s/events/%s/odds", c.sport, eventID), params, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
