// Package exercisedb reads exercises from the RapidAPI-hosted ExerciseDB.
package exercisedb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"coach-agent/internal/integrations/paramstore"
)

const (
	defaultBaseURL = "https://exercisedb.p.rapidapi.com"
	defaultHost    = "exercisedb.p.rapidapi.com"
	defaultTimeout = 10 * time.Second
)

// Exercise is the subset of the ExerciseDB record the agents use.
type Exercise struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Target     string `json:"target"`
	BodyPart   string `json:"bodyPart"`
	Equipment  string `json:"equipment"`
	Difficulty string `json:"difficulty,omitempty"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("exercisedb: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type Client struct {
	baseURL     string
	host        string
	httpClient  *http.Client
	getter      paramstore.Getter
	paramPrefix string

	keyOnce sync.Once
	apiKey  string
	keyErr  error
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client whose RapidAPI key is read once from
// <paramPrefix>/exercisedb-token.
func NewClient(ps paramstore.Getter, paramPrefix string, opts ...Option) (*Client, error) {
	if ps == nil {
		return nil, errors.New("exercisedb: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("exercisedb: parameter prefix must not be empty")
	}
	c := &Client{
		baseURL:     defaultBaseURL,
		host:        defaultHost,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		getter:      ps,
		paramPrefix: paramPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	return c, nil
}

func (c *Client) resolveAPIKey(ctx context.Context) (string, error) {
	c.keyOnce.Do(func() {
		c.apiKey, c.keyErr = paramstore.ReadToken(ctx, c.getter, c.paramPrefix+"/exercisedb-token")
		if c.keyErr != nil {
			c.keyErr = fmt.Errorf("exercisedb: %w", c.keyErr)
		}
	})
	return c.apiKey, c.keyErr
}

// ByTarget lists exercises for a target muscle, e.g. "biceps" or "glutes".
func (c *Client) ByTarget(ctx context.Context, target string, limit int) ([]Exercise, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return nil, errors.New("exercisedb: target must not be empty")
	}
	endpoint := c.baseURL + "/exercises/target/" + url.PathEscape(target)
	if limit > 0 {
		endpoint += fmt.Sprintf("?limit=%d", limit)
	}

	var out []Exercise
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Targets lists the target muscles ExerciseDB knows about.
func (c *Client) Targets(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.get(ctx, c.baseURL+"/exercises/targetList", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) get(ctx context.Context, endpoint string, into any) error {
	apiKey, err := c.resolveAPIKey(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("exercisedb: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)

	res, err := c.resolvedHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("exercisedb: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return &HTTPStatusError{StatusCode: res.StatusCode, URL: endpoint, Body: string(buf)}
	}
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(into); err != nil {
		return fmt.Errorf("exercisedb: decode response: %w", err)
	}
	return nil
}
