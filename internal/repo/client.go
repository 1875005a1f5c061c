// SPDX-License-Identifier: MPL-2.0

package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// DefaultOwner and DefaultRepo identify the central components repository.
	DefaultOwner = "cometkit"
	DefaultRepo  = "components"

	// ComponentDirName is the directory in the remote repository that holds
	// one subdirectory per installable component.
	ComponentDirName = "Component"

	// ExampleDirName is the directory in the remote repository that holds
	// optional example trees, one subdirectory per component.
	ExampleDirName = "Example"

	// defaultTimeout bounds every API and download request so a network
	// stall cannot hang an install forever.
	defaultTimeout = 60 * time.Second

	// maxJSONResponseBytes caps API response bodies (10 MB).
	maxJSONResponseBytes = 10 << 20
)

// ErrReleaseNotFound is returned when the repository has no published release.
var ErrReleaseNotFound = errors.New("no release found")

type (
	// Release is the subset of a GitHub release the fetcher needs.
	Release struct {
		TagName    string // Git tag, e.g. "v1.4.0"
		Name       string // Human-readable release name
		TarballURL string // Source snapshot download URL
		Prerelease bool
		Draft      bool
	}

	// releaseJSON is the GitHub API wire format for a release.
	releaseJSON struct {
		TagName    string `json:"tag_name"`
		Name       string `json:"name"`
		TarballURL string `json:"tarball_url"`
		Prerelease bool   `json:"prerelease"`
		Draft      bool   `json:"draft"`
	}

	// contentJSON is the GitHub API wire format for a directory entry.
	contentJSON struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}

	// Client queries the GitHub API for the components repository: release
	// metadata, tarball downloads, and directory listings.
	Client struct {
		httpClient *http.Client
		// customClient records that httpClient came from WithHTTPClient;
		// WithTimeout must not override a caller-owned client's timeout.
		customClient bool
		owner        string
		repo         string
		baseURL      string // API base, overridable for tests
		userAgent    string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

// WithHTTPClient sets a custom HTTP client, useful for tests.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
		cl.customClient = true
	}
}

// WithBaseURL overrides the GitHub API base URL, primarily for test servers.
func WithBaseURL(base string) ClientOption {
	return func(cl *Client) {
		cl.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRepo overrides the default repository owner and name.
func WithRepo(owner, repo string) ClientOption {
	return func(cl *Client) {
		cl.owner = owner
		cl.repo = repo
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithTimeout bounds each HTTP request and the git clone in branch mode.
// Only applies to the internally constructed client; a client provided via
// WithHTTPClient keeps its own timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 && !cl.customClient {
			cl.httpClient.Timeout = d
		}
	}
}

// NewClient creates a Client for the central components repository.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		owner:      DefaultOwner,
		repo:       DefaultRepo,
		baseURL:    "https://api.github.com",
		userAgent:  "comet/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Slug returns "owner/repo" for display.
func (c *Client) Slug() string {
	return c.owner + "/" + c.repo
}

// Timeout returns the per-request bound configured on the client's HTTP
// transport. Zero means no bound.
func (c *Client) Timeout() time.Duration {
	return c.httpClient.Timeout
}

// LatestRelease returns the repository's latest stable release. When the
// dedicated endpoint has nothing (404), it falls back to listing releases
// and picking the highest stable tag by semver, so repositories that only
// publish tagged prereleases still resolve.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	latestURL := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	resp, err := c.doRequest(ctx, latestURL)
	if err != nil {
		return nil, fmt.Errorf("querying latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	switch resp.StatusCode {
	case http.StatusOK:
		var raw releaseJSON
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding latest release: %w", err)
		}
		r := Release(raw)
		return &r, nil
	case http.StatusNotFound:
		return c.latestFromList(ctx)
	default:
		return nil, fmt.Errorf("querying latest release: unexpected status %d", resp.StatusCode)
	}
}

// latestFromList lists releases and returns the highest stable one.
func (c *Client) latestFromList(ctx context.Context) (*Release, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/releases?per_page=30", c.baseURL, c.owner, c.repo)

	resp, err := c.doRequest(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("listing releases: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing releases: unexpected status %d", resp.StatusCode)
	}

	var raw []releaseJSON
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding releases: %w", err)
	}

	var stable []Release
	for _, r := range raw {
		if !r.Draft && !r.Prerelease {
			stable = append(stable, Release(r))
		}
	}
	if len(stable) == 0 {
		return nil, ErrReleaseNotFound
	}

	// Highest tag first. Tags without a "v" prefix are normalized for the
	// comparison only; invalid tags sort last.
	slices.SortStableFunc(stable, func(a, b Release) int {
		return semver.Compare(normalizeTag(b.TagName), normalizeTag(a.TagName))
	})

	return &stable[0], nil
}

// Download streams the file at the given URL. The caller must close the
// returned ReadCloser.
func (c *Client) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: unexpected status %d", url, resp.StatusCode)
	}

	return resp.Body, nil
}

// ListComponents returns the names of all component directories under
// Component/ on the given branch, sorted lexicographically.
func (c *Client) ListComponents(ctx context.Context, branch string) ([]string, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, ComponentDirName)
	if branch != "" {
		listURL += "?ref=" + url.QueryEscape(branch)
	}

	resp, err := c.doRequest(ctx, listURL)
	if err != nil {
		return nil, fmt.Errorf("listing components: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("listing components in %s: unexpected status %d", c.Slug(), resp.StatusCode)
	}

	var entries []contentJSON
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxJSONResponseBytes)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decoding component listing: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.Type == "dir" {
			names = append(names, e.Name)
		}
	}
	sort.Strings(names)

	return names, nil
}

// ComponentIndex fetches the repository's README, the human-maintained
// markdown table of available components. Used as a fallback when the
// contents API is unavailable.
func (c *Client) ComponentIndex(ctx context.Context) (string, error) {
	readmeURL := fmt.Sprintf("%s/repos/%s/%s/readme", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, readmeURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching component index: %w", err)
	}
	defer func() { _ = resp.Body.Close() }() // read-only response body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching component index: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading component index: %w", err)
	}

	return string(data), nil
}

// doRequest creates and executes a GET request with common API headers.
func (c *Client) doRequest(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	return resp, nil
}

// normalizeTag prefixes the tag with "v" so the semver package accepts it.
func normalizeTag(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}
