package block

import (
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const sampleBlock = StartMarker + "\n" +
	"WORKDIR /zap/plugin\n" +
	"ARG ASCANRULES_VERSION=38\n" +
	EndMarker + "\n"

func TestLocateWellFormedFile(t *testing.T) {
	prefix := "FROM zaproxy/zap-stable:2.11.1\n\nCOPY policies /zap/policies\n\n"
	suffix := "\nUSER zap\nENTRYPOINT [\"zap.sh\"]\n"
	file := prefix + sampleBlock + suffix

	s, err := Locate(file)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	if s.Prefix != prefix {
		t.Errorf("Prefix = %q, want %q", s.Prefix, prefix)
	}
	if s.Block != sampleBlock {
		t.Errorf("Block = %q, want %q", s.Block, sampleBlock)
	}
	if s.Suffix != suffix {
		t.Errorf("Suffix = %q, want %q", s.Suffix, suffix)
	}
	if s.Prefix+s.Block+s.Suffix != file {
		t.Error("slices do not reconstruct the original file")
	}
}

func TestLocateBlockAtEndWithoutTrailingNewline(t *testing.T) {
	file := "FROM scratch\n" + StartMarker + "\ncontent\n" + EndMarker

	s, err := Locate(file)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if s.Suffix != "" {
		t.Errorf("Suffix = %q, want empty", s.Suffix)
	}
	if s.Prefix+s.Block+s.Suffix != file {
		t.Error("slices do not reconstruct the original file")
	}
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "no markers at all",
			text:    "FROM scratch\nRUN true\n",
			wantErr: ErrMarkerNotFound,
		},
		{
			name:    "start without end",
			text:    "FROM scratch\n" + StartMarker + "\nARG X=1\n",
			wantErr: ErrMarkerMismatch,
		},
		{
			name:    "end without start",
			text:    "FROM scratch\n" + EndMarker + "\n",
			wantErr: ErrMarkerMismatch,
		},
		{
			name:    "end before start",
			text:    EndMarker + "\nmiddle\n" + StartMarker + "\n",
			wantErr: ErrMarkerMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate(tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Locate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestReplace(t *testing.T) {
	file := "before\n" + sampleBlock + "after\n"
	s, err := Locate(file)
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}

	newBlock := StartMarker + "\nARG ASCANRULES_VERSION=39\n" + EndMarker + "\n"
	got := s.Replace(newBlock)
	want := "before\n" + newBlock + "after\n"
	if got != want {
		t.Errorf("Replace() = %q, want %q", got, want)
	}
}

func TestInsertAfterAnchor(t *testing.T) {
	file := "FROM zaproxy/zap-stable:2.11.1\nCOPY policies /zap/policies\nUSER zap\n"

	got, err := Insert(file, "COPY policies /zap/policies", sampleBlock)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	want := "FROM zaproxy/zap-stable:2.11.1\nCOPY policies /zap/policies\n" + sampleBlock + "USER zap\n"
	if got != want {
		t.Errorf("Insert() = %q, want %q", got, want)
	}
}

func TestInsertAnchorOnFirstLine(t *testing.T) {
	file := "FROM scratch\nUSER zap\n"
	got, err := Insert(file, "FROM scratch", sampleBlock)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if !strings.HasPrefix(got, "FROM scratch\n"+StartMarker) {
		t.Errorf("Insert() did not place block after first line:\n%s", got)
	}
}

func TestInsertAnchorOnLastLineWithoutNewline(t *testing.T) {
	file := "FROM scratch\nCOPY a b"
	got, err := Insert(file, "COPY a b", sampleBlock)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got != file+"\n"+sampleBlock {
		t.Errorf("Insert() = %q", got)
	}
}

func TestInsertAnchorMissing(t *testing.T) {
	_, err := Insert("FROM scratch\n", "WORKDIR /zap", sampleBlock)
	if !errors.Is(err, ErrAnchorNotFound) {
		t.Errorf("Insert() error = %v, want %v", err, ErrAnchorNotFound)
	}

	_, err = Insert("FROM scratch\n", "", sampleBlock)
	if !errors.Is(err, ErrAnchorNotFound) {
		t.Errorf("Insert() with empty anchor error = %v, want %v", err, ErrAnchorNotFound)
	}
}

// genOpaqueText generates surrounding file content free of marker lines.
func genOpaqueText() gopter.Gen {
	return gen.SliceOf(gen.OneConstOf(
		"FROM zaproxy/zap-stable:2.11.1",
		"COPY policies /zap/policies",
		"RUN apt-get update",
		"USER zap",
		"",
		"# a comment",
	)).Map(func(lines []string) string {
		if len(lines) == 0 {
			return ""
		}
		return strings.Join(lines, "\n") + "\n"
	})
}

func TestSpliceRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("locate then replace with the same block is identity", prop.ForAll(
		func(prefix, suffix string) bool {
			file := prefix + sampleBlock + suffix
			s, err := Locate(file)
			if err != nil {
				return false
			}
			return s.Replace(s.Block) == file
		},
		genOpaqueText(),
		genOpaqueText(),
	))

	properties.Property("everything outside the markers is byte-preserved", prop.ForAll(
		func(prefix, suffix, newVersion string) bool {
			file := prefix + sampleBlock + suffix
			s, err := Locate(file)
			if err != nil {
				return false
			}
			newBlock := StartMarker + "\nARG X_VERSION=" + newVersion + "\n" + EndMarker + "\n"
			out := s.Replace(newBlock)
			return strings.HasPrefix(out, prefix) && strings.HasSuffix(out, suffix) &&
				out == prefix+newBlock+suffix
		},
		genOpaqueText(),
		genOpaqueText(),
		gen.RegexMatch(`[0-9]{1,4}`),
	))

	properties.TestingRun(t)
}
