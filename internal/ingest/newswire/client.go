package newswire

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	// BaseURL for news searches
	BaseURL = "https://www.google.com/search"

	// UserAgent for requests
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// MinRequestInterval to prevent rate limiting
	MinRequestInterval = 2 * time.Second

	fetchTimeout = 30 * time.Second
)

// Client scrapes recent news headlines for a matchup with a headless
// browser. Everything here is best-effort color for the narrative prompt;
// any failure degrades to an empty headline list.
type Client struct {
	lastRequest time.Time
	interval    time.Duration
	logger      *logrus.Logger

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewClient creates a headline scraper client.
func NewClient(logger *logrus.Logger) (*Client, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Client{
		interval: MinRequestInterval,
		logger:   logger,
		allocCtx: allocCtx,
		cancel:   cancel,
	}, nil
}

// Close releases browser resources.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Headlines fetches recent news headlines for a player/matchup query.
func (c *Client) Headlines(ctx context.Context, query string) ([]string, error) {
	html, err := c.fetchWithRateLimit(ctx, query+" nba news")
	if err != nil {
		return nil, err
	}
	return ParseHeadlines(html)
}

func (c *Client) fetchWithRateLimit(ctx context.Context, query string) (string, error) {
	if !c.lastRequest.IsZero() {
		if elapsed := time.Since(c.lastRequest); elapsed < c.interval {
			wait := c.interval - elapsed
			c.logger.WithField("wait", wait.String()).Debug("newswire rate limiting")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	html, err := c.fetch(ctx, query)
	c.lastRequest = time.Now()
	return html, err
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	browserCtx, cancelBrowser := chromedp.NewContext(c.allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, fetchTimeout)
	defer cancelTimeout()

	var htmlContent string
	url := fmt.Sprintf("%s?q=%s&tbm=nws", BaseURL, strings.ReplaceAll(query, " ", "+"))

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`body`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to render
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return htmlContent, nil
}
