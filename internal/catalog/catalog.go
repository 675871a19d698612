// Package catalog loads the addon-definitions file that drives reconciliation.
//
// The definitions live in a TOML file with one [[addon]] table per tracked
// addon. The order of the tables is authoritative: it determines the order of
// the declarations in the generated build-file block.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Error variables for catalog parse errors
var (
	// ErrNoAddons is returned when the definitions file declares no addons
	ErrNoAddons = errors.New("no addons declared")
	// ErrMissingID is returned when an addon entry has no id
	ErrMissingID = errors.New("missing required field: id")
	// ErrMissingRepository is returned when an addon entry has no repository
	ErrMissingRepository = errors.New("missing required field: repository")
	// ErrMissingTagPrefix is returned when an addon entry has no tag_prefix
	ErrMissingTagPrefix = errors.New("missing required field: tag_prefix")
	// ErrMissingFile is returned when an addon entry has no file template
	ErrMissingFile = errors.New("missing required field: file")
	// ErrMissingVersion is returned when an addon entry has no pinned version
	ErrMissingVersion = errors.New("missing required field: version")
	// ErrMissingPlaceholder is returned when the file template has no {version} placeholder
	ErrMissingPlaceholder = errors.New("file template must contain {version} placeholder")
	// ErrDuplicateAddon is returned when two entries share the same id
	ErrDuplicateAddon = errors.New("duplicate addon id")
	// ErrInvalidIndex is returned when an unknown index type is specified
	ErrInvalidIndex = errors.New("invalid index type: must be 'github' or 'html'")
	// ErrMissingPageURL is returned when an html-index addon has no page_url
	ErrMissingPageURL = errors.New("missing required field: page_url (required for html index)")
)

// VersionPlaceholder is the token substituted with a concrete version in
// file templates and download URLs.
const VersionPlaceholder = "{version}"

// DefaultReleaseHost is the release host used when the definitions file does
// not override it.
const DefaultReleaseHost = "https://github.com"

// Index types for release resolution
const (
	IndexGitHub = "github"
	IndexHTML   = "html"
)

// Addon describes one tracked addon: where its releases are published and
// which version is currently pinned in the build definition.
type Addon struct {
	// ID is the unique addon identifier (used in the declaration variable)
	ID string `toml:"id"`
	// Repository is the release repository in "owner/name" form
	Repository string `toml:"repository"`
	// TagPrefix is the release-tag prefix ("<prefix>-v<version>" tags)
	TagPrefix string `toml:"tag_prefix"`
	// File is the artifact filename template containing {version}
	File string `toml:"file"`
	// Version is the currently pinned version
	Version string `toml:"version"`
	// VersionKey names the underlying version variable when several addons
	// (different release channels) share one. Defaults to ID.
	VersionKey string `toml:"version_key,omitempty"`
	// Index selects the release index type: "github" (default) or "html"
	Index string `toml:"index,omitempty"`
	// PageURL is the releases page to scrape when Index is "html"
	PageURL string `toml:"page_url,omitempty"`
}

// Key returns the underlying version-variable key for the addon.
func (a Addon) Key() string {
	if a.VersionKey != "" {
		return a.VersionKey
	}
	return a.ID
}

// VersionVar returns the declaration variable name, e.g. "ASCANRULES_VERSION".
func (a Addon) VersionVar() string {
	return strings.ToUpper(strings.ReplaceAll(a.Key(), "-", "_")) + "_VERSION"
}

// ReleaseTag returns the upstream release tag for a version.
func (a Addon) ReleaseTag(version string) string {
	return a.TagPrefix + "-v" + version
}

// Filename returns the artifact filename with the version substituted.
func (a Addon) Filename(version string) string {
	return strings.ReplaceAll(a.File, VersionPlaceholder, version)
}

// CleanupGlob returns the removal glob matching any version of the artifact.
func (a Addon) CleanupGlob() string {
	return strings.ReplaceAll(a.File, VersionPlaceholder, "*")
}

// DownloadURL returns the artifact download URL for a version. The version
// may be a literal or a build-argument reference such as "${FOO_VERSION}".
func (a Addon) DownloadURL(host, version string) string {
	return fmt.Sprintf("%s/%s/releases/download/%s/%s",
		host, a.Repository, a.ReleaseTag(version), a.Filename(version))
}

// IndexType returns the effective release index type for the addon.
func (a Addon) IndexType() string {
	if a.Index == "" {
		return IndexGitHub
	}
	return a.Index
}

// Catalog is the ordered set of tracked addons.
type Catalog struct {
	// ReleaseHost is the host artifacts are downloaded from
	ReleaseHost string
	// addons holds the addons in declaration order
	addons []Addon
	// byID indexes addons by identifier
	byID map[string]int
}

// catalogFile is the on-disk TOML structure.
type catalogFile struct {
	ReleaseHost string  `toml:"release_host,omitempty"`
	Addons      []Addon `toml:"addon"`
}

// Load reads and parses the addon-definitions file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read addon definitions: %w", err)
	}
	return Parse(data)
}

// Parse parses addon definitions from TOML data, validating every entry and
// preserving declaration order.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse addon definitions: %w", err)
	}

	if len(file.Addons) == 0 {
		return nil, ErrNoAddons
	}

	c := &Catalog{
		ReleaseHost: file.ReleaseHost,
		addons:      file.Addons,
		byID:        make(map[string]int, len(file.Addons)),
	}
	if c.ReleaseHost == "" {
		c.ReleaseHost = DefaultReleaseHost
	}

	for i, addon := range c.addons {
		if err := validateAddon(&addon); err != nil {
			return nil, err
		}
		if _, exists := c.byID[addon.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAddon, addon.ID)
		}
		c.byID[addon.ID] = i
	}

	return c, nil
}

// validateAddon checks a single addon entry for required fields.
func validateAddon(a *Addon) error {
	if a.ID == "" {
		return ErrMissingID
	}
	if a.Repository == "" {
		return fmt.Errorf("addon %s: %w", a.ID, ErrMissingRepository)
	}
	if a.TagPrefix == "" {
		return fmt.Errorf("addon %s: %w", a.ID, ErrMissingTagPrefix)
	}
	if a.File == "" {
		return fmt.Errorf("addon %s: %w", a.ID, ErrMissingFile)
	}
	if !strings.Contains(a.File, VersionPlaceholder) {
		return fmt.Errorf("addon %s: %w", a.ID, ErrMissingPlaceholder)
	}
	if a.Version == "" {
		return fmt.Errorf("addon %s: %w", a.ID, ErrMissingVersion)
	}

	switch a.IndexType() {
	case IndexGitHub:
	case IndexHTML:
		if a.PageURL == "" {
			return fmt.Errorf("addon %s: %w", a.ID, ErrMissingPageURL)
		}
	default:
		return fmt.Errorf("addon %s: %w: got %q", a.ID, ErrInvalidIndex, a.Index)
	}

	return nil
}

// Addons returns the addons in declaration order.
func (c *Catalog) Addons() []Addon {
	return c.addons
}

// Order returns the addon identifiers in declaration order.
func (c *Catalog) Order() []string {
	ids := make([]string, len(c.addons))
	for i, a := range c.addons {
		ids[i] = a.ID
	}
	return ids
}

// Get returns the addon with the given identifier.
func (c *Catalog) Get(id string) (Addon, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Addon{}, false
	}
	return c.addons[i], true
}

// Len returns the number of tracked addons.
func (c *Catalog) Len() int {
	return len(c.addons)
}

// PinnedVersions returns the currently pinned version for every addon.
func (c *Catalog) PinnedVersions() map[string]string {
	versions := make(map[string]string, len(c.addons))
	for _, a := range c.addons {
		versions[a.ID] = a.Version
	}
	return versions
}
