// Package version implements the release-identifier ordering used for addon
// reconciliation.
//
// Tracked addons pin versions from many upstream projects with no shared
// versioning scheme: plain integers ("38"), dotted numerics ("2.11.1"),
// date stamps and commit-ish tags. The comparison is therefore two-tier:
// versions that decompose into dot-separated numeric segments are compared
// component-wise, everything else falls back to exact string inequality.
// A strict semver parser would reject half the real tags and is deliberately
// not used.
package version

import (
	"strconv"
	"strings"
)

// Segments decomposes a version string into dot-separated numeric segments.
// The second return value is false when any segment is empty or non-numeric,
// in which case the version is not orderable and callers must fall back to
// string comparison.
func Segments(v string) ([]int, bool) {
	if v == "" {
		return nil, false
	}

	parts := strings.Split(v, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		nums[i] = n
	}
	return nums, true
}

// Comparable reports whether both versions decompose into numeric segments
// and can therefore be ordered component-wise.
func Comparable(a, b string) bool {
	_, okA := Segments(a)
	_, okB := Segments(b)
	return okA && okB
}

// compareIntSlices compares two slices of integers, treating missing
// trailing segments as zero ("1.2" == "1.2.0").
func compareIntSlices(a, b []int) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	for i := 0; i < maxLen; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}

		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}

// Compare orders two version strings.
// Returns -1 if a < b, 0 if a == b, 1 if a > b.
//
// When both versions are numeric the order is component-wise. Otherwise the
// order degrades to plain string comparison, which is stable but carries no
// recency meaning; callers that need "newest" for non-numeric tags must rely
// on the release index order instead.
func Compare(a, b string) int {
	numsA, okA := Segments(a)
	numsB, okB := Segments(b)
	if okA && okB {
		return compareIntSlices(numsA, numsB)
	}
	return strings.Compare(a, b)
}

// IsUpgrade reports whether resolved represents an upgrade over current.
//
// Equal values are never an upgrade. When both versions are numeric,
// resolved must order strictly greater. When either side is not numeric,
// any different value is treated as a candidate change: the resolver, not
// this comparator, guarantees that what it returns is the latest release.
func IsUpgrade(current, resolved string) bool {
	if current == resolved {
		return false
	}
	if Comparable(current, resolved) {
		return Compare(resolved, current) > 0
	}
	return true
}
