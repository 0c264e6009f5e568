// Package github reads public repository data of an organisation from the
// GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"bytesite/internal/domain/config"
)

type Repo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	UpdatedAt   time.Time `json:"updated_at"`
	Topics      []string  `json:"topics"`
	Fork        bool      `json:"fork"`
	Archived    bool      `json:"archived"`
}

// Score ranks repositories on the home page.
func (r Repo) Score() int {
	return r.Stars + r.Forks
}

type Contributor struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: %s: unexpected status %d", e.URL, e.Status)
}

func (e *StatusError) retryable() bool {
	return e.Status >= 500
}

// Consecutive failed requests before the breaker opens, and how long it
// stays open before letting one probe through.
const (
	breakerTrips   = 3
	breakerTimeout = 30 * time.Second
)

type Client struct {
	base    string
	org     string
	token   string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewClient(cfg config.GitHubConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(cfg.APIBase, "/"),
		org:     cfg.Org,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker(logger),
		logger:  logger,
	}
}

func newBreaker(logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1,
		Timeout:     breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !outage(err)
		},
	})
}

// ListRepos returns the organisation's public repositories.
func (c *Client) ListRepos(ctx context.Context) ([]Repo, error) {
	var repos []Repo
	p := fmt.Sprintf("/orgs/%s/repos?per_page=100&type=public", url.PathEscape(c.org))
	if err := c.get(ctx, p, &repos); err != nil {
		return nil, fmt.Errorf("list repos: %w", err)
	}
	return repos, nil
}

// Contributors returns the contributors of one repository. Empty
// repositories yield no contributors.
func (c *Client) Contributors(ctx context.Context, repo string) ([]Contributor, error) {
	var out []Contributor
	p := fmt.Sprintf("/repos/%s/%s/contributors?per_page=100",
		url.PathEscape(c.org), url.PathEscape(repo))
	if err := c.get(ctx, p, &out); err != nil {
		return nil, fmt.Errorf("list contributors of %s: %w", repo, err)
	}
	return out, nil
}

// get retries once on transport errors and 5xx responses. While the
// breaker is open it fails with gobreaker.ErrOpenState without a request.
func (c *Client) get(ctx context.Context, path string, v any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		err := c.do(ctx, path, v)
		if err == nil || !retryable(ctx, err) {
			return nil, err
		}
		c.logger.Debug("retrying github request", zap.String("path", path), zap.Error(err))
		return nil, c.do(ctx, path, v)
	})
	return err
}

// outage reports whether err says GitHub is unreachable or failing, as
// opposed to a bad request or a cancelled caller.
func outage(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var de *decodeError
	return !errors.As(err, &de)
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) do(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: req.URL.Path, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &decodeError{err: err}
	}
	return nil
}
