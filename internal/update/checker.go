package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	// DefaultAPIURL is the GitHub REST API base.
	DefaultAPIURL = "https://api.github.com"

	// maxJSONResponseBytes caps the release feed response (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// GitHubResolver resolves the latest release via the GitHub releases API.
type GitHubResolver struct {
	owner     string // Repository owner
	repo      string // Repository name
	token     string // Optional, for rate limiting
	userAgent string // Sent on every request; GitHub rejects anonymous agents
	client    *http.Client
	baseURL   string // Base URL for GitHub API (for testing)
}

// githubRelease is the wire format of GET /repos/{owner}/{repo}/releases/latest.
type githubRelease struct {
	TagName string        `json:"tag_name"`
	Name    string        `json:"name"`
	HTMLURL string        `json:"html_url"`
	Assets  []githubAsset `json:"assets"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ResolverOption configures a GitHubResolver.
type ResolverOption func(*GitHubResolver)

// WithHTTPClient sets the HTTP client shared with the downloader.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *GitHubResolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithBaseURL overrides the API base URL, primarily for test servers.
func WithBaseURL(base string) ResolverOption {
	return func(r *GitHubResolver) {
		if base != "" {
			r.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets an optional GitHub token for authentication.
func WithToken(token string) ResolverOption {
	return func(r *GitHubResolver) {
		r.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ResolverOption {
	return func(r *GitHubResolver) {
		if ua != "" {
			r.userAgent = ua
		}
	}
}

// NewGitHubResolver creates a resolver for owner/repo.
func NewGitHubResolver(owner, repo string, opts ...ResolverOption) *GitHubResolver {
	r := &GitHubResolver{
		owner:     owner,
		repo:      repo,
		userAgent: DefaultUserAgent,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: DefaultAPIURL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Latest fetches the latest release. Transport failures and non-200
// responses are KindNetwork; an undecodable body or an empty tag is KindParse.
func (r *GitHubResolver) Latest(ctx context.Context) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", r.baseURL, r.owner, r.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, newError(KindNetwork, "resolve latest release", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", r.userAgent)
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, newError(KindNetwork, "resolve latest release", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, newError(KindNetwork, "resolve latest release",
			fmt.Errorf("GitHub API returned status %d", resp.StatusCode))
	}

	var gr githubRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&gr); err != nil {
		return nil, newError(KindParse, "resolve latest release", fmt.Errorf("failed to decode response: %w", err))
	}
	if strings.TrimSpace(gr.TagName) == "" {
		return nil, newError(KindParse, "resolve latest release", fmt.Errorf("response has no tag_name"))
	}

	release := &Release{
		TagName: strings.TrimSpace(gr.TagName),
		Name:    gr.Name,
		HTMLURL: gr.HTMLURL,
		Assets: lo.Map(gr.Assets, func(a githubAsset, _ int) Asset {
			return Asset(a)
		}),
	}
	return release, nil
}

// FindAsset returns the asset with exactly the given name.
func (r *Release) FindAsset(name string) (Asset, bool) {
	return lo.Find(r.Assets, func(a Asset) bool {
		return a.Name == name
	})
}

// redactURL strips query parameters and fragments for use in error messages.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
