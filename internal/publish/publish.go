// Package publish turns a reconciliation summary into the change proposal
// consumed by the external delivery collaborators.
//
// The engine computes what should change; how the change is delivered (fork
// and branch management, commit authoring, pull-request creation, chat
// notification) belongs to implementations of Publisher and Notifier that
// live outside this repository.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dastkit/addonsync/internal/reconcile"
)

// ProposedChange is the handoff to the external pull-request collaborator.
type ProposedChange struct {
	// Branch is the proposed branch name, e.g. "addons_update_2020_10_22__10_20_59_UTC"
	Branch string
	// Title is the proposed pull-request title
	Title string
	// Body is the proposed pull-request body listing per-addon deltas
	Body string
}

// Publisher delivers a proposed change to the canonical build definition's
// hosting service.
type Publisher interface {
	Publish(ctx context.Context, change ProposedChange, summary *reconcile.Summary) error
}

// Notifier announces a delivered change, e.g. to a chat channel.
type Notifier interface {
	Notify(ctx context.Context, title, message, link string) error
}

// BuildChange renders the change proposal for a run summary. The timestamp
// is a parameter so callers (and tests) control it.
func BuildChange(now time.Time, summary *reconcile.Summary) ProposedChange {
	now = now.UTC()
	return ProposedChange{
		Branch: "addons_update_" + now.Format("2006_01_02__15_04_05_MST"),
		Title:  "Addons auto update from " + now.Format("02 Jan 2006 15:04 MST"),
		Body:   buildBody(summary),
	}
}

// buildBody lists every addon's outcome in catalog order.
func buildBody(summary *reconcile.Summary) string {
	var b strings.Builder
	b.WriteString("Update addons from upstream\n")

	for _, r := range summary.Results {
		b.WriteByte('\n')
		switch r.Outcome {
		case reconcile.OutcomeUpgraded:
			fmt.Fprintf(&b, "- %s: %s -> %s", r.ID, r.PinnedVersion, r.NewVersion)
		case reconcile.OutcomeUnresolved:
			fmt.Fprintf(&b, "- %s: %s (unresolved: %s)", r.ID, r.PinnedVersion, r.Err)
		default:
			fmt.Fprintf(&b, "- %s: %s (unchanged)", r.ID, r.PinnedVersion)
		}
	}
	b.WriteByte('\n')
	return b.String()
}
