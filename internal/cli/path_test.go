package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/taxoview/pkg/palette"
)

func TestFormatPath(t *testing.T) {
	eng, _ := newTestView(t, "Q729", 1)
	p, err := eng.FindPath("Q144", "Q26745")
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}

	got := formatPath(p, eng.Label, p.Colors(palette.Ascent(), palette.Descent()))
	for _, want := range []string{"dog", "mammal", "animal", "bird", "parrot", "↑", "↓"} {
		if !strings.Contains(got, want) {
			t.Errorf("formatPath() = %q, missing %q", got, want)
		}
	}
	if strings.Index(got, "dog") > strings.Index(got, "parrot") {
		t.Errorf("formatPath() = %q, want dog before parrot", got)
	}
}

func TestWriteSteps(t *testing.T) {
	eng, _ := newTestView(t, "Q729", 1)
	p, err := eng.FindPath("Q144", "Q26745")
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}

	var buf bytes.Buffer
	writeSteps(&buf, p, eng.Label, p.Colors(palette.Ascent(), palette.Descent()))
	out := buf.String()

	for _, want := range []string{"Entity", "Step", "start", "up", "down", "(pivot)", "Q26745"} {
		if !strings.Contains(out, want) {
			t.Errorf("steps missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "(pivot)"); n != 1 {
		t.Errorf("pivot marked %d times, want 1", n)
	}
}

func TestPathScales(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	if _, _, err := c.pathScales(); err != nil {
		t.Fatalf("pathScales() with defaults error = %v", err)
	}

	c.Config.Palette.Ascent = []string{"#zzzzzz", "#ffffff"}
	if _, _, err := c.pathScales(); err == nil {
		t.Error("pathScales() with a bad colour should fail")
	}
}
