// Package block renders the generated build-file block and splices it into
// the build definition.
//
// The block is the only region of the build definition owned by addonsync.
// It is bounded by two sentinel marker lines; everything outside the markers
// is opaque text that must be preserved byte for byte. Rendering is
// deterministic: the same catalog and version mapping always produce
// byte-identical output, because downstream change detection is a plain text
// comparison.
package block

import (
	"strings"

	"github.com/dastkit/addonsync/internal/catalog"
)

// Sentinel marker lines bounding the generated block.
const (
	StartMarker = "# Autogenerated by addonsync - DO NOT EDIT MANUALLY"
	EndMarker   = "# Autogenerated END"
)

// DefaultWorkDir is the image directory the block installs artifacts into.
const DefaultWorkDir = "/zap/plugin"

// Generator renders the generated block from a catalog and a version mapping.
type Generator struct {
	// WorkDir is the install directory emitted at the top of the block
	WorkDir string
}

// NewGenerator creates a Generator with the default install directory.
func NewGenerator() *Generator {
	return &Generator{WorkDir: DefaultWorkDir}
}

// Render produces the full generated block, markers included, for the given
// catalog and addon-id-to-version mapping. Addons missing from the mapping
// keep their pinned version.
//
// Output layout, in catalog order: one ARG declaration per distinct version
// key (addons sharing a version key share one declaration; the first addon
// with a key decides its version), then one combined cleanup step removing
// every addon's artifact glob, then one combined fetch step downloading every
// addon's artifact by its declared version variable.
func (g *Generator) Render(c *catalog.Catalog, versions map[string]string) string {
	addons := c.Addons()

	var b strings.Builder
	b.WriteString(StartMarker)
	b.WriteByte('\n')
	b.WriteString("WORKDIR ")
	b.WriteString(g.WorkDir)
	b.WriteByte('\n')

	seen := make(map[string]bool, len(addons))
	for _, a := range addons {
		if seen[a.Key()] {
			continue
		}
		seen[a.Key()] = true
		b.WriteString("ARG ")
		b.WriteString(a.VersionVar())
		b.WriteByte('=')
		b.WriteString(versionFor(a, versions))
		b.WriteByte('\n')
	}

	b.WriteString("RUN rm --force \\\n")
	for _, a := range addons {
		b.WriteString("        ")
		b.WriteString(a.CleanupGlob())
		b.WriteString(" \\\n")
	}

	b.WriteString("    && wget --quiet \\\n")
	for i, a := range addons {
		b.WriteString("        ")
		b.WriteString(a.DownloadURL(c.ReleaseHost, "${"+a.VersionVar()+"}"))
		if i < len(addons)-1 {
			b.WriteString(" \\")
		}
		b.WriteByte('\n')
	}

	b.WriteString(EndMarker)
	b.WriteByte('\n')
	return b.String()
}

// versionFor resolves the version to declare for an addon.
func versionFor(a catalog.Addon, versions map[string]string) string {
	if v, ok := versions[a.ID]; ok && v != "" {
		return v
	}
	return a.Version
}
