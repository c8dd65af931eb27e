// Package github lists and downloads story chapters kept as markdown files in a
// GitHub repository.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/storymap/storymap/internal/source"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the GitHub REST API base URL.
	BaseURL = "https://api.github.com"

	// DefaultRepoName is the repository each owner keeps their chapters in.
	DefaultRepoName = "MyStory"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// RateLimit keeps well under the unauthenticated limit on bursts of file fetches.
	RateLimit = 5.0

	// maxFileSize bounds a single downloaded chapter.
	maxFileSize = 8 * 1024 * 1024
)

// Client is a rate-limited GitHub API client for one story repository name.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	token      string
	baseURL    string
	repo       string
}

// Errors.
var (
	ErrInvalidURL   = errors.New("invalid GitHub URL format")
	ErrInvalidOwner = errors.New("invalid GitHub owner")
	ErrRepoNotFound = errors.New("repository not found (404)")
	ErrRateLimited  = errors.New("GitHub API rate limit exceeded")
	ErrUnauthorized = errors.New("GitHub API authentication failed")
	ErrAPIError     = errors.New("GitHub API error")
	ErrNetworkError = errors.New("network error connecting to GitHub")
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithToken sets the token for authenticated requests.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRepoName sets the repository name listed for each owner.
func WithRepoName(name string) ClientOption {
	return func(c *Client) {
		if name != "" {
			c.repo = name
		}
	}
}

// NewClient creates a new GitHub API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		repo:       DefaultRepoName,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Kind identifies chapters imported through this client.
func (c *Client) Kind() string {
	return "github"
}

// RepoName returns the repository name the client lists.
func (c *Client) RepoName() string {
	return c.repo
}

// urlPatterns for parsing GitHub URLs.
var (
	// Matches: https://github.com/owner/repo, https://github.com/owner/repo.git, github.com/owner/repo
	fullURLPattern = regexp.MustCompile(`^(?:https?://)?github\.com/([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+?)(?:\.git)?$`)
	// Matches: owner/repo
	shorthandPattern = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)/([a-zA-Z0-9_.-]+)$`)
	// GitHub logins: alphanumerics and single hyphens, at most 39 characters.
	ownerPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9]|-[a-zA-Z0-9]){0,38}$`)
)

// ParseGitHubURL parses a GitHub URL or owner/repo shorthand and returns (owner, repo).
// Supported formats:
//   - https://github.com/owner/repo
//   - https://github.com/owner/repo.git
//   - github.com/owner/repo
//   - owner/repo
func ParseGitHubURL(input string) (owner, repo string, err error) {
	input = strings.TrimSpace(input)

	if matches := fullURLPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}
	if matches := shorthandPattern.FindStringSubmatch(input); matches != nil {
		return matches[1], matches[2], nil
	}

	return "", "", ErrInvalidURL
}

// ValidOwner reports whether owner is a well-formed GitHub login.
func ValidOwner(owner string) bool {
	return ownerPattern.MatchString(owner)
}

// contentEntry is one item of the repository contents listing.
type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// ListMarkdownFiles lists the markdown files at the root of owner's story repository.
func (c *Client) ListMarkdownFiles(ctx context.Context, owner string) ([]source.File, error) {
	if !ValidOwner(owner) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}

	apiURL := fmt.Sprintf("%s/repos/%s/%s/contents/", c.baseURL, owner, c.repo)
	resp, err := c.get(ctx, apiURL, "application/vnd.github.v3+json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrAPIError, err)
	}

	var files []source.File
	for _, e := range entries {
		if e.Type != "file" || !source.IsMarkdown(e.Name) {
			continue
		}
		files = append(files, source.File{
			Name:        e.Name,
			Path:        e.Path,
			SHA:         e.SHA,
			DownloadURL: e.DownloadURL,
		})
	}
	return files, nil
}

// FetchFile downloads the raw content of a listed file.
func (c *Client) FetchFile(ctx context.Context, f source.File) (string, error) {
	if f.DownloadURL == "" {
		return "", fmt.Errorf("%w: %s has no download URL", ErrAPIError, f.Path)
	}

	resp, err := c.get(ctx, f.DownloadURL, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", ErrNetworkError, f.Path, err)
	}
	return string(data), nil
}

// get issues a rate-limited GET and maps non-200 responses to sentinel errors.
// On success the caller owns the response body.
func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", "storymap-cli")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrRepoNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return ErrRateLimited
		}
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}
}
