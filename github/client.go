// Package github fetches repository content through the GitHub REST API and
// scrapes it into skill packages: README sections, doc files, code
// signatures, and example snippets.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// ErrNotFound is returned for 404 responses (missing repo, path, or readme).
var ErrNotFound = errors.New("github: not found")

// ErrRateLimited is returned when the API quota is exhausted.
var ErrRateLimited = errors.New("github: rate limited")

// Config configures the API client.
type Config struct {
	// BaseURL of the API. Default: https://api.github.com.
	BaseURL string
	// Token for authenticated requests. Default: $GITHUB_TOKEN.
	Token string
	// Timeout for HTTP requests. Default: 30s.
	Timeout time.Duration
	// MaxBytes caps response body size. Default: 10MB.
	MaxBytes int64
	// UserAgent sent with requests.
	UserAgent string
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.github.com"
	}
	if c.Token == "" {
		c.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "skillseeker/1.0"
	}
}

// Client is a minimal GitHub REST v3 client covering what the scraper needs.
type Client struct {
	client *http.Client
	config Config
}

// NewClient creates a Client.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Repo describes a repository.
type Repo struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Stars         int    `json:"stargazers_count"`
	Language      string `json:"language"`
	HTMLURL       string `json:"html_url"`
}

// TreeEntry is one path in a repository tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob or tree
	Size int64  `json:"size"`
}

// RateLimit reports the current API quota.
type RateLimit struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
	Reset     int `json:"reset"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return fmt.Errorf("%w: resets at %s", ErrRateLimited, resp.Header.Get("X-RateLimit-Reset"))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("github api %s: http %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// GetRepo fetches repository metadata.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	var r Repo
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetTree fetches the full recursive file tree for a branch.
func (c *Client) GetTree(ctx context.Context, owner, repo, branch string) ([]TreeEntry, error) {
	var resp struct {
		Tree      []TreeEntry `json:"tree"`
		Truncated bool        `json:"truncated"`
	}
	path := fmt.Sprintf("/repos/%s/%s/git/trees/%s?recursive=1", owner, repo, url.PathEscape(branch))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Tree, nil
}

type contentResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

func (r *contentResponse) decode() ([]byte, error) {
	if r.Encoding != "base64" {
		return []byte(r.Content), nil
	}
	return base64.StdEncoding.DecodeString(strings.ReplaceAll(r.Content, "\n", ""))
}

// GetFileContent fetches and decodes one file's content.
func (c *Client) GetFileContent(ctx context.Context, owner, repo, path string) ([]byte, error) {
	var resp contentResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, escapePath(path)), &resp); err != nil {
		return nil, err
	}
	data, err := resp.decode()
	if err != nil {
		return nil, fmt.Errorf("decode content of %s: %w", path, err)
	}
	return data, nil
}

// GetReadme fetches and decodes the repository README.
func (c *Client) GetReadme(ctx context.Context, owner, repo string) ([]byte, error) {
	var resp contentResponse
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/readme", owner, repo), &resp); err != nil {
		return nil, err
	}
	data, err := resp.decode()
	if err != nil {
		return nil, fmt.Errorf("decode readme: %w", err)
	}
	return data, nil
}

// GetLanguages fetches the byte counts per language.
func (c *Client) GetLanguages(ctx context.Context, owner, repo string) (map[string]int64, error) {
	langs := make(map[string]int64)
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/languages", owner, repo), &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// GetRateLimit fetches the core API quota.
func (c *Client) GetRateLimit(ctx context.Context) (*RateLimit, error) {
	var resp struct {
		Resources struct {
			Core RateLimit `json:"core"`
		} `json:"resources"`
	}
	if err := c.get(ctx, "/rate_limit", &resp); err != nil {
		return nil, err
	}
	return &resp.Resources.Core, nil
}

// escapePath escapes each path segment but keeps the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// ParseRepoURL extracts owner and repo from a GitHub URL or "owner/repo"
// shorthand.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), ".git")
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.Trim(s, "/")
	parts := strings.Split(s, "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository reference %q (want owner/repo)", raw)
	}
	return parts[0], parts[1], nil
}
