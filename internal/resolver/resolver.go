// Package resolver queries release indexes for the latest published version
// of each tracked addon.
//
// Two index types are supported: the GitHub releases API (the default) and a
// plain HTML releases page for upstreams that publish outside GitHub. Each
// lookup filters published tags by the addon's tag prefix and returns the
// highest matching version. Transient failures are retried with backoff; a
// permanent failure (no releases under the prefix) is reported per addon so
// the caller can continue with the remaining addons.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/dastkit/addonsync/internal/catalog"
	"github.com/dastkit/addonsync/internal/version"
)

// Error variables for resolution errors
var (
	// ErrNoReleases is returned when the index has no releases matching the
	// addon's tag prefix
	ErrNoReleases = errors.New("no releases found matching tag prefix")
	// ErrIndexUnavailable is returned when the release index could not be
	// queried at all
	ErrIndexUnavailable = errors.New("release index unavailable")
	// ErrUnknownIndex is returned for an unrecognized index type
	ErrUnknownIndex = errors.New("unknown release index type")
)

// Source describes how a resolved version was obtained.
type Source string

const (
	// SourceResolved means the version came from the upstream release index
	SourceResolved Source = "resolved"
	// SourceFallback means resolution failed and the pinned version was kept
	SourceFallback Source = "fallback"
)

// ResolvedVersion is the outcome of one addon's upstream lookup.
type ResolvedVersion struct {
	// ID is the addon identifier
	ID string
	// Version is the latest version found upstream (or the pinned version
	// when Source is SourceFallback)
	Version string
	// Source records whether the version was resolved or fell back
	Source Source
}

// Index looks up the latest published version for an addon.
type Index interface {
	LatestVersion(ctx context.Context, addon catalog.Addon) (string, error)
}

// Resolver dispatches each addon to its configured release index.
type Resolver struct {
	github Index
	html   Index
}

// Option is a functional option for configuring Resolver.
type Option func(*Resolver)

// WithGitHubIndex overrides the GitHub release index.
func WithGitHubIndex(index Index) Option {
	return func(r *Resolver) {
		r.github = index
	}
}

// WithHTMLIndex overrides the HTML release index.
func WithHTMLIndex(index Index) Option {
	return func(r *Resolver) {
		r.html = index
	}
}

// New creates a Resolver. apiBase is the GitHub API base URL (empty for the
// public API), token an optional bearer token for rate limits. The same
// retrying client backs both indexes.
func New(client *HTTPClient, apiBase, token string, opts ...Option) *Resolver {
	if client == nil {
		client = NewHTTPClient()
	}

	r := &Resolver{
		github: NewGitHubIndex(client, apiBase, token),
		html:   NewHTMLIndex(client),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the latest upstream version for a single addon. Calls
// are independent and side-effect-free; the caller may run them
// concurrently.
func (r *Resolver) Resolve(ctx context.Context, addon catalog.Addon) (ResolvedVersion, error) {
	var index Index
	switch addon.IndexType() {
	case catalog.IndexGitHub:
		index = r.github
	case catalog.IndexHTML:
		index = r.html
	default:
		return ResolvedVersion{}, fmt.Errorf("addon %s: %w: %q", addon.ID, ErrUnknownIndex, addon.Index)
	}

	latest, err := index.LatestVersion(ctx, addon)
	if err != nil {
		return ResolvedVersion{}, fmt.Errorf("addon %s: %w", addon.ID, err)
	}

	return ResolvedVersion{
		ID:      addon.ID,
		Version: latest,
		Source:  SourceResolved,
	}, nil
}

// latestOf picks the newest version from an index's candidates. Numeric
// versions are ordered by the comparator; as soon as a non-numeric version
// appears there is no total order, so the index's own ordering (newest
// first) is trusted instead.
func latestOf(versions []string) (string, error) {
	if len(versions) == 0 {
		return "", ErrNoReleases
	}

	best := versions[0]
	for _, v := range versions[1:] {
		if !version.Comparable(best, v) {
			return versions[0], nil
		}
		if version.Compare(v, best) > 0 {
			best = v
		}
	}
	return best, nil
}
