package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL for the model API
	DefaultBaseURL = "https://api.anthropic.com/v1"

	// DefaultModel used for report narratives
	DefaultModel = "claude-sonnet-4-20250514"

	apiVersion     = "2023-06-01"
	requestTimeout = 60 * time.Second
	maxTokens      = 1024
)

// Client generates narrative text from an assembled prompt. The model is an
// opaque collaborator: text in, best-effort text out, no further contract.
type Client struct {
	httpClient     *http.Client
	logger         *logrus.Logger
	apiKey         string
	baseURL        string
	model          string
	circuitBreaker *gobreaker.CircuitBreaker
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type response struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a narrative client with an injected key and a circuit
// breaker so a struggling model API cannot stall every report.
func NewClient(baseURL, apiKey string, logger *logrus.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "narrative-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"circuit":    name,
				"from_state": from.String(),
				"to_state":   to.String(),
			}).Info("narrative circuit breaker state changed")
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger:         logger,
		apiKey:         apiKey,
		baseURL:        baseURL,
		model:          DefaultModel,
		circuitBreaker: cb,
	}
}

// Generate sends the prompt and returns the model's plain-text reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	result, err := c.circuitBreaker.Execute(func() (interface{}, error) {
		return c.send(ctx, prompt)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) send(ctx context.Context, prompt string) (string, error) {
	payload := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    "You are a sharp, concise NBA analyst writing a pre-game report for a fan dashboard.",
		Messages: []message{
			{Role: "user", Content: prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("narrative API error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("narrative API returned %d", resp.StatusCode)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("narrative API returned no text content")
	}

	c.logger.WithFields(logrus.Fields{
		"prompt_length": len(prompt),
		"reply_length":  len(text),
		"duration":      time.Since(start).String(),
	}).Debug("generated narrative")

	return text, nil
}
