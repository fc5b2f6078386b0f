package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/ontology"
	"github.com/matzehuels/taxoview/pkg/palette"
)

func sampleTree(t *testing.T) *hierarchy.Tree {
	t.Helper()
	g := ontology.Build([]ontology.Edge{
		{Child: "B", Parent: "A"},
		{Child: "C", Parent: "A"},
		{Child: "D", Parent: "B"},
	}, map[string]string{"A": "animal", "B": "bird \"fowl\"", "C": "cat"}, ontology.WithRoot("A"))
	tr, err := hierarchy.Build(g, "A", 1)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestToDOT(t *testing.T) {
	tr := sampleTree(t)
	if err := tr.SetColor(tr.RootKey(), "#ff0000"); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(tr, Options{Fill: palette.Grey})

	for _, want := range []string{
		"rankdir=LR;",
		`n0 [label="animal", fillcolor="#ff0000"];`,
		`label="bird \"fowl\""`,
		"peripheries=2",
		"n0 -> n1;",
		"n0 -> n2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "n1 -> ") {
		t.Error("leaf B should have no outgoing edges at depth 1")
	}

	// cat is an unexpandable leaf at max depth.
	wantCat := `n2 [label="cat", fillcolor="` + palette.Grey(1) + `"];`
	if !strings.Contains(dot, wantCat) {
		t.Errorf("DOT missing %q:\n%s", wantCat, dot)
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sampleTree(t), Options{Detailed: true})
	if !strings.Contains(dot, `label="animal\nA\nvalue: 2"`) {
		t.Errorf("detailed label missing:\n%s", dot)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleTree(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("SVG header not normalized: %.200s", s)
	}
	if !strings.Contains(s, "animal") {
		t.Error("SVG missing node label")
	}
}
