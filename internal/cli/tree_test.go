package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/taxoview/pkg/palette"
)

func TestWriteTree(t *testing.T) {
	_, v := newTestView(t, "Q729", 1)

	var buf bytes.Buffer
	writeTree(&buf, v.Tree, palette.Cool)
	out := buf.String()

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), out)
	}

	for _, want := range []string{"animal", "mammal", "bird", "├── ", "└── ", iconClosed + " mammal", iconOpen + " animal"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(lines[2], "bird") {
		t.Errorf("last line = %q, want bird", lines[2])
	}
}

func TestWriteTreeNested(t *testing.T) {
	_, v := newTestView(t, "Q729", 2)

	var buf bytes.Buffer
	writeTree(&buf, v.Tree, palette.Grey)
	out := buf.String()

	for _, want := range []string{"│   ", iconLeaf + " dog", iconLeaf + " parrot", "Q26745"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, iconClosed) {
		t.Errorf("fully expanded tree should have no closed nodes:\n%s", out)
	}
}
