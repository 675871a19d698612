package output

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestOutcomeColorMatchesOutcome(t *testing.T) {
	// Ensure colors are enabled for this test
	ForceColor()
	defer NoColor()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	// Map of outcomes to their expected ANSI color codes
	outcomeColorCodes := map[string]string{
		"upgraded":   "\x1b[32m", // Green
		"unresolved": "\x1b[33m", // Yellow
		"unchanged":  "\x1b[2m",  // Faint
	}

	outcomeGen := gen.OneConstOf("upgraded", "unresolved", "unchanged")

	properties.Property("FormatOutcome contains correct ANSI code for outcome", prop.ForAll(
		func(outcome string) bool {
			formatted := FormatOutcome(outcome)
			return strings.Contains(formatted, outcomeColorCodes[outcome])
		},
		outcomeGen,
	))

	properties.Property("OutcomeColor returns non-nil color for known outcome", prop.ForAll(
		func(outcome string) bool {
			return OutcomeColor(outcome) != nil
		},
		outcomeGen,
	))

	properties.Property("FormatOutcome output contains the outcome text", prop.ForAll(
		func(outcome string) bool {
			return strings.Contains(FormatOutcome(outcome), outcome)
		},
		outcomeGen,
	))

	properties.TestingRun(t)
}

func TestNoColorDisablesANSICodes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	outcomeGen := gen.OneConstOf("upgraded", "unresolved", "unchanged", "unknown")

	properties.Property("FormatOutcome contains no ANSI codes when NoColor is set", prop.ForAll(
		func(outcome string) bool {
			NoColor()
			defer ForceColor()

			formatted := FormatOutcome(outcome)
			return !strings.Contains(formatted, "\x1b[") && !strings.Contains(formatted, "\033[")
		},
		outcomeGen,
	))

	properties.Property("FormatAddon contains no ANSI codes when NoColor is set", prop.ForAll(
		func(id string) bool {
			NoColor()
			defer ForceColor()

			formatted := FormatAddon(id)
			return !strings.Contains(formatted, "\x1b[") && !strings.Contains(formatted, "\033[")
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
