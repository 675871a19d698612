package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dastkit/addonsync/internal/catalog"
	"github.com/dastkit/addonsync/internal/common/config"
	"github.com/dastkit/addonsync/internal/common/logger"
	"github.com/dastkit/addonsync/internal/common/output"
	"github.com/dastkit/addonsync/internal/publish"
	"github.com/dastkit/addonsync/internal/reconcile"
	"github.com/dastkit/addonsync/internal/resolver"
)

var (
	// reconcileAddons is the path to the addon definitions file
	reconcileAddons string
	// reconcileFile is the path to the build definition to rewrite
	reconcileFile string
	// reconcileAnchor is the insertion anchor for files without markers
	reconcileAnchor string
	// reconcileDryRun computes the summary without writing
	reconcileDryRun bool
	// reconcilePublish prints the proposed change for the delivery tooling
	reconcilePublish bool
	// reconcileConcurrency bounds parallel upstream lookups
	reconcileConcurrency int
	// reconcileTimeout bounds each upstream lookup
	reconcileTimeout time.Duration
	// reconcileToken is the GitHub API token
	reconcileToken string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile pinned addon versions against upstream releases",
	Long: `Resolve the latest release for every addon in the definitions file,
regenerate the managed block and rewrite the build definition in place.

Examples:
  addonsync reconcile --addons addons.toml --file Dockerfile
  addonsync reconcile --dry-run                  Show what would change
  addonsync reconcile --publish                  Print the proposed change
  addonsync reconcile --concurrency 8            Raise the lookup parallelism`,
	Run: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileAddons, "addons", "", "Path to the addon definitions file")
	reconcileCmd.Flags().StringVar(&reconcileFile, "file", "", "Path to the build definition to rewrite")
	reconcileCmd.Flags().StringVar(&reconcileAnchor, "anchor", "", "Line to insert a fresh block after when no markers exist")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Compute the summary without writing")
	reconcileCmd.Flags().BoolVar(&reconcilePublish, "publish", false, "Print the proposed change for the delivery tooling")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 0, "Number of parallel upstream lookups")
	reconcileCmd.Flags().DurationVar(&reconcileTimeout, "timeout", 0, "Timeout per upstream lookup")
	reconcileCmd.Flags().StringVar(&reconcileToken, "github-token", "", "GitHub API token (overrides config)")

	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	addonsPath := reconcileAddons
	if addonsPath == "" {
		addonsPath = cfg.Addons.Definitions
	}
	if addonsPath == "" {
		logger.Error("no addon definitions file: use --addons or set addons.definitions in the config")
		os.Exit(1)
	}

	filePath := reconcileFile
	if filePath == "" {
		filePath = cfg.Addons.BuildFile
	}
	if filePath == "" {
		logger.Error("no build definition file: use --file or set addons.build_file in the config")
		os.Exit(1)
	}

	anchor := reconcileAnchor
	if anchor == "" {
		anchor = cfg.Addons.Anchor
	}

	token := reconcileToken
	if token == "" {
		token = cfg.GitHub.Token
	}

	cat, err := catalog.Load(addonsPath)
	if err != nil {
		logger.Error("loading addon definitions: %v", err)
		os.Exit(1)
	}

	opts := reconcile.DefaultOptions()
	opts.DryRun = reconcileDryRun
	opts.Anchor = anchor
	if reconcileConcurrency > 0 {
		opts.Concurrency = reconcileConcurrency
	}
	if reconcileTimeout > 0 {
		opts.Timeout = reconcileTimeout
	}

	res := resolver.New(resolver.NewHTTPClient(), cfg.GitHub.APIBase, token)
	rec := reconcile.New(cat, res, opts)

	logger.Info("reconciling %d addon(s) from %s", cat.Len(), addonsPath)

	summary, err := rec.Run(context.Background(), filePath)
	if err != nil {
		logger.Error("reconciliation failed: %v", err)
		os.Exit(1)
	}

	displaySummary(summary)

	if reconcilePublish && summary.Changed {
		displayProposedChange(publish.BuildChange(time.Now(), summary))
	}
}

// displaySummary formats and displays the run summary
func displaySummary(summary *reconcile.Summary) {
	fmt.Println()
	output.Header.Println("Reconciliation Results")
	fmt.Println()

	for _, r := range summary.Results {
		outcome := output.FormatOutcome(string(r.Outcome))
		switch r.Outcome {
		case reconcile.OutcomeUpgraded:
			fmt.Printf("  %s: %s → %s %s\n",
				output.FormatAddon(r.ID), r.PinnedVersion, r.NewVersion, outcome)
		case reconcile.OutcomeUnresolved:
			fmt.Printf("  %s: %s %s\n", output.FormatAddon(r.ID), r.PinnedVersion, outcome)
			output.Error.Printf("      %s\n", r.Err)
		default:
			fmt.Printf("  %s: %s %s\n", output.FormatAddon(r.ID), r.PinnedVersion, outcome)
		}
	}

	fmt.Println()
	switch {
	case summary.Written && summary.Inserted:
		output.PrintSuccess("inserted a fresh block with %d upgrade(s)", len(summary.Upgraded()))
	case summary.Written:
		output.PrintSuccess("rewrote the block with %d upgrade(s)", len(summary.Upgraded()))
	case summary.Changed:
		output.PrintInfo("dry run: %d upgrade(s) pending, file untouched", len(summary.Upgraded()))
	default:
		output.PrintSuccess("all addons are up to date")
	}

	if unresolved := summary.Unresolved(); len(unresolved) > 0 {
		output.PrintWarning("%d addon(s) unresolved, pinned versions kept", len(unresolved))
	}
}

// displayProposedChange prints the change handoff for the delivery tooling
func displayProposedChange(change publish.ProposedChange) {
	fmt.Println()
	output.Header.Println("Proposed Change")
	fmt.Println()
	fmt.Printf("  Branch: %s\n", change.Branch)
	fmt.Printf("  Title:  %s\n", change.Title)
	fmt.Println()
	fmt.Println(change.Body)
}
