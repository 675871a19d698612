// Package reconcile drives one addon reconciliation run: resolve the latest
// upstream version for every tracked addon, regenerate the build-file block
// and splice it back into the build definition.
//
// A run walks a fixed state machine, LOADED through SPLICED, and terminates
// DONE when every addon resolved or PARTIAL when some did not. Resolution
// failures never abort the run: a failed addon keeps its pinned version and
// is reported as unresolved, so one dead upstream cannot block updates for
// the rest.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dastkit/addonsync/internal/block"
	"github.com/dastkit/addonsync/internal/catalog"
	"github.com/dastkit/addonsync/internal/resolver"
	"github.com/dastkit/addonsync/internal/version"
)

// State identifies a phase of the reconciliation run.
type State string

const (
	StateLoaded    State = "LOADED"
	StateResolving State = "RESOLVING"
	StateComparing State = "COMPARING"
	StateRendering State = "RENDERING"
	StateSpliced   State = "SPLICED"
	// StateDone means every addon resolved successfully
	StateDone State = "DONE"
	// StatePartial means one or more addons stayed on their pinned version
	StatePartial State = "PARTIAL"
)

// Outcome is the per-addon result of a run.
type Outcome string

const (
	// OutcomeUpgraded means a newer upstream version was pinned
	OutcomeUpgraded Outcome = "upgraded"
	// OutcomeUnchanged means upstream matches the pinned version
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeUnresolved means the upstream lookup failed and the pinned
	// version was kept
	OutcomeUnresolved Outcome = "unresolved"
)

// AddonResult records one addon's outcome.
type AddonResult struct {
	// ID is the addon identifier
	ID string
	// PinnedVersion is the version recorded before the run
	PinnedVersion string
	// NewVersion is the version pinned by the run (equals PinnedVersion
	// unless the addon was upgraded)
	NewVersion string
	// Outcome classifies the result
	Outcome Outcome
	// Err carries the resolution error text for unresolved addons
	Err string
}

// Summary is the output contract of a run, handed to the external publisher.
type Summary struct {
	// Results holds per-addon outcomes in catalog order
	Results []AddonResult
	// OldBlock is the previously generated block (empty when inserting)
	OldBlock string
	// NewBlock is the freshly rendered block
	NewBlock string
	// Changed is true when the new block differs from the old one
	Changed bool
	// Inserted is true when no markers existed and a fresh block was added
	Inserted bool
	// Written is true when the file was rewritten (never in dry runs)
	Written bool
	// State is the terminal state: DONE or PARTIAL
	State State
}

// Upgraded returns the results that were upgraded.
func (s *Summary) Upgraded() []AddonResult {
	return s.filter(OutcomeUpgraded)
}

// Unresolved returns the results whose resolution failed.
func (s *Summary) Unresolved() []AddonResult {
	return s.filter(OutcomeUnresolved)
}

func (s *Summary) filter(outcome Outcome) []AddonResult {
	var out []AddonResult
	for _, r := range s.Results {
		if r.Outcome == outcome {
			out = append(out, r)
		}
	}
	return out
}

// Options configures a reconciliation run.
type Options struct {
	// Concurrency bounds the number of parallel upstream lookups
	Concurrency int
	// Timeout bounds each individual upstream lookup
	Timeout time.Duration
	// DryRun computes the summary without touching the file
	DryRun bool
	// Anchor is the line a fresh block is inserted after when the file has
	// no markers yet
	Anchor string
}

// DefaultOptions returns the default run options.
func DefaultOptions() Options {
	return Options{
		Concurrency: 4,
		Timeout:     30 * time.Second,
	}
}

// Resolver is the upstream lookup dependency of the driver.
type Resolver interface {
	Resolve(ctx context.Context, addon catalog.Addon) (resolver.ResolvedVersion, error)
}

// Reconciler runs addon reconciliation against a build-definition file.
type Reconciler struct {
	catalog   *catalog.Catalog
	resolver  Resolver
	generator *block.Generator
	opts      Options
	state     State
}

// New creates a Reconciler for the given catalog and resolver.
func New(c *catalog.Catalog, r Resolver, opts Options) *Reconciler {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultOptions().Concurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	return &Reconciler{
		catalog:   c,
		resolver:  r,
		generator: block.NewGenerator(),
		opts:      opts,
		state:     StateLoaded,
	}
}

// State returns the current run state.
func (r *Reconciler) State() State {
	return r.state
}

// Run reconciles the build-definition file at filePath and returns the run
// summary. Marker inconsistencies abort the run with the file untouched;
// per-addon resolution failures degrade the terminal state to PARTIAL.
func (r *Reconciler) Run(ctx context.Context, filePath string) (*Summary, error) {
	original, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read build definition: %w", err)
	}
	text := string(original)

	// Locate before any network call: an inconsistent file fails the run
	// without wasting upstream lookups, and insertion without an anchor has
	// nowhere defined to put the block.
	splice, err := block.Locate(text)
	inserting := false
	if err != nil {
		if !errors.Is(err, block.ErrMarkerNotFound) {
			return nil, err
		}
		inserting = true
		if r.opts.Anchor == "" {
			return nil, fmt.Errorf("%w and no insertion anchor configured", block.ErrMarkerNotFound)
		}
	}

	r.state = StateResolving
	resolved := r.resolveAll(ctx)

	r.state = StateComparing
	summary := &Summary{Inserted: inserting}
	versions := make(map[string]string, r.catalog.Len())
	for i, addon := range r.catalog.Addons() {
		result := AddonResult{
			ID:            addon.ID,
			PinnedVersion: addon.Version,
			NewVersion:    addon.Version,
		}

		switch {
		case resolved[i].err != nil:
			result.Outcome = OutcomeUnresolved
			result.Err = resolved[i].err.Error()
		case version.IsUpgrade(addon.Version, resolved[i].version.Version):
			result.Outcome = OutcomeUpgraded
			result.NewVersion = resolved[i].version.Version
		default:
			result.Outcome = OutcomeUnchanged
		}

		versions[addon.ID] = result.NewVersion
		summary.Results = append(summary.Results, result)
	}

	r.state = StateRendering
	summary.NewBlock = r.generator.Render(r.catalog, versions)

	r.state = StateSpliced
	var newText string
	if inserting {
		newText, err = block.Insert(text, r.opts.Anchor, summary.NewBlock)
		if err != nil {
			return nil, err
		}
	} else {
		summary.OldBlock = splice.Block
		newText = splice.Replace(summary.NewBlock)
	}

	summary.Changed = newText != text
	if summary.Changed && !r.opts.DryRun {
		if err := writeFileAtomic(filePath, []byte(newText)); err != nil {
			return nil, err
		}
		summary.Written = true
	}

	if len(summary.Unresolved()) > 0 {
		r.state = StatePartial
	} else {
		r.state = StateDone
	}
	summary.State = r.state

	return summary, nil
}

// resolution pairs one addon's resolved version with its lookup error.
type resolution struct {
	version resolver.ResolvedVersion
	err     error
}

// resolveAll looks up every addon concurrently, bounded by the configured
// concurrency limit and per-call timeout. Results come back in catalog
// order; failures are captured per addon, never returned.
func (r *Reconciler) resolveAll(ctx context.Context) []resolution {
	addons := r.catalog.Addons()
	results := make([]resolution, len(addons))

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	for i, addon := range addons {
		i, addon := i, addon
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
			defer cancel()

			resolved, err := r.resolver.Resolve(callCtx, addon)
			if err != nil {
				results[i] = resolution{
					version: resolver.ResolvedVersion{
						ID:      addon.ID,
						Version: addon.Version,
						Source:  resolver.SourceFallback,
					},
					err: err,
				}
				return nil
			}
			results[i] = resolution{version: resolved}
			return nil
		})
	}

	// Tasks never return errors; Wait only orders the result collection
	// after the last lookup.
	g.Wait()

	return results
}

// writeFileAtomic rewrites path via a temp file and rename so a crashed run
// never leaves a half-written build definition behind.
func writeFileAtomic(path string, data []byte) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace build definition: %w", err)
	}
	return nil
}
