package block

import (
	"errors"
	"fmt"
	"strings"
)

// Error variables for locate/splice errors
var (
	// ErrMarkerNotFound is returned when the file contains no start marker
	ErrMarkerNotFound = errors.New("generated block markers not found")
	// ErrMarkerMismatch is returned when the markers are inconsistent (a
	// start without an end, or a stray end without a start)
	ErrMarkerMismatch = errors.New("generated block markers are inconsistent")
	// ErrAnchorNotFound is returned when the insertion anchor line is absent
	ErrAnchorNotFound = errors.New("insertion anchor line not found")
)

// Splice is a file split into three disjoint slices around the generated
// block. Prefix + Block + Suffix reconstructs the original file exactly.
type Splice struct {
	// Prefix is everything before the start marker
	Prefix string
	// Block is the marked region, markers included
	Block string
	// Suffix is everything after the end marker line
	Suffix string
}

// Locate finds the generated block inside the file text by its sentinel
// markers.
//
// A missing start marker yields ErrMarkerNotFound; the caller is expected to
// insert a fresh block instead (see Insert). A start marker without an end
// marker, or an end marker without a start marker, yields ErrMarkerMismatch:
// the file is inconsistent and guessing the intended region risks corrupting
// unrelated content, so it is left to the caller as a hard error.
func Locate(text string) (*Splice, error) {
	start := strings.Index(text, StartMarker)
	end := strings.Index(text, EndMarker)

	if start == -1 {
		if end != -1 {
			return nil, fmt.Errorf("%w: end marker present without start marker", ErrMarkerMismatch)
		}
		return nil, ErrMarkerNotFound
	}
	if end == -1 || end < start {
		return nil, fmt.Errorf("%w: start marker present without matching end marker", ErrMarkerMismatch)
	}

	// The block extends through the end marker line, including its newline.
	blockEnd := end + len(EndMarker)
	if blockEnd < len(text) && text[blockEnd] == '\n' {
		blockEnd++
	}

	return &Splice{
		Prefix: text[:start],
		Block:  text[start:blockEnd],
		Suffix: text[blockEnd:],
	}, nil
}

// Replace returns the file text with the block slice substituted. It is a
// pure concatenation with no other side effects.
func (s *Splice) Replace(newBlock string) string {
	return s.Prefix + newBlock + s.Suffix
}

// Insert places a fresh block immediately after the anchor line in a file
// that has no markers yet. The anchor must match a whole line exactly.
func Insert(text, anchor, block string) (string, error) {
	if anchor == "" {
		return "", ErrAnchorNotFound
	}
	if !strings.HasSuffix(block, "\n") {
		block += "\n"
	}

	anchorLine := anchor + "\n"
	var at int
	switch {
	case strings.HasPrefix(text, anchorLine):
		at = len(anchorLine)
	default:
		i := strings.Index(text, "\n"+anchorLine)
		if i == -1 {
			// Anchor may be the last line without a trailing newline.
			if strings.HasSuffix(text, "\n"+anchor) || text == anchor {
				return text + "\n" + block, nil
			}
			return "", fmt.Errorf("%w: %q", ErrAnchorNotFound, anchor)
		}
		at = i + 1 + len(anchorLine)
	}

	return text[:at] + block + text[at:], nil
}
