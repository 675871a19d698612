package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dastkit/addonsync/internal/catalog"
)

// DefaultAPIBase is the public GitHub API endpoint.
const DefaultAPIBase = "https://api.github.com"

// userAgent identifies addonsync to release indexes.
const userAgent = "addonsync/1.0"

// GitHubIndex queries the GitHub releases API for published tags.
type GitHubIndex struct {
	// BaseURL is the API base URL
	BaseURL string
	// Token is an optional bearer token for higher rate limits
	Token string
	client *HTTPClient
}

// NewGitHubIndex creates a GitHub release index. apiBase falls back to the
// public API when empty.
func NewGitHubIndex(client *HTTPClient, apiBase, token string) *GitHubIndex {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &GitHubIndex{
		BaseURL: apiBase,
		Token:   token,
		client:  client,
	}
}

// release is the subset of the GitHub releases API response the index reads.
type release struct {
	TagName    string `json:"tag_name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
}

// LatestVersion fetches the repository's releases and returns the highest
// version whose tag matches "<tag_prefix>-v<version>". The API returns
// releases newest first, which latestOf relies on for non-numeric versions.
func (g *GitHubIndex) LatestVersion(ctx context.Context, addon catalog.Addon) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/releases?per_page=100", g.BaseURL, addon.Repository)

	headers := map[string]string{
		"User-Agent": userAgent,
		"Accept":     "application/vnd.github.v3+json",
	}
	if g.Token != "" {
		headers["Authorization"] = "Bearer " + g.Token
	}

	resp, err := g.client.Get(ctx, url, headers)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoReleases
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: status %d: %s", ErrIndexUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	var releases []release
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("%w: failed to parse releases response: %v", ErrIndexUnavailable, err)
	}

	return latestOf(matchingVersions(releases, addon.TagPrefix))
}

// matchingVersions extracts versions from release tags carrying the prefix,
// preserving the API's newest-first order.
func matchingVersions(releases []release, tagPrefix string) []string {
	prefix := tagPrefix + "-v"

	var versions []string
	for _, r := range releases {
		if r.Draft {
			continue
		}
		if !strings.HasPrefix(r.TagName, prefix) {
			continue
		}
		v := strings.TrimPrefix(r.TagName, prefix)
		if v == "" {
			continue
		}
		versions = append(versions, v)
	}
	return versions
}
