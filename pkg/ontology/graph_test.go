package ontology

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuild_LinksAndLabels(t *testing.T) {
	g := Build([]Edge{
		{Child: "D", Parent: "B"},
		{Child: "B", Parent: "A"},
		{Child: "C", Parent: "A"},
	}, map[string]string{"A": "animal", "B": "bird"}, WithRoot("A"))

	if g.RootID() != "A" {
		t.Fatalf("RootID() = %q, want A", g.RootID())
	}
	if diff := cmp.Diff([]string{"B", "C"}, g.ChildIDs("A")); diff != "" {
		t.Errorf("ChildIDs(A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B"}, g.ParentIDs("D")); diff != "" {
		t.Errorf("ParentIDs(D) mismatch (-want +got):\n%s", diff)
	}
	if got := g.Label("B"); got != "bird" {
		t.Errorf("Label(B) = %q, want bird", got)
	}
	if got := g.Label("D"); got != "D" {
		t.Errorf("Label(D) = %q, want fallback D", got)
	}
	if got := g.Label("missing"); got != "missing" {
		t.Errorf("Label(missing) = %q, want missing", got)
	}
}

func TestBuild_Deduplicates(t *testing.T) {
	g := Build([]Edge{
		{Child: "B", Parent: "A"},
		{Child: "B", Parent: "A", Relation: RelationPartOf},
		{Child: "B", Parent: "A"},
	}, nil, WithRoot("A"))

	if got := len(g.ChildIDs("A")); got != 1 {
		t.Errorf("len(ChildIDs(A)) = %d, want 1", got)
	}
	if got := len(g.ParentIDs("B")); got != 1 {
		t.Errorf("len(ParentIDs(B)) = %d, want 1", got)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestBuild_AttachesOrphansToRoot(t *testing.T) {
	g := Build([]Edge{
		{Child: "Q5", Parent: "Q215627"},
		{Child: "Q7", Parent: "Q7"},
	}, nil)

	root := g.Root()
	if root.ID != DefaultRootID {
		t.Fatalf("Root().ID = %q, want %q", root.ID, DefaultRootID)
	}
	if diff := cmp.Diff([]string{"Q215627", "Q7"}, g.ChildIDs(DefaultRootID)); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
	if got := g.ParentIDs("Q7"); len(got) != 1 || got[0] != DefaultRootID {
		t.Errorf("ParentIDs(Q7) = %v, want [%s]", got, DefaultRootID)
	}
	for _, n := range g.Nodes() {
		if n.ID != root.ID && len(n.Parents) == 0 {
			t.Errorf("node %q has no parent after Build", n.ID)
		}
	}
}

func TestBuild_RegistryOrder(t *testing.T) {
	g := Build([]Edge{
		{Child: "C", Parent: "B"},
		{Child: "B", Parent: "R"},
		{Child: "E", Parent: "D"},
	}, nil, WithRoot("R"))

	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID)
	}
	want := []string{"R", "C", "B", "E", "D"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Nodes() order mismatch (-want +got):\n%s", diff)
	}
	for i, id := range want {
		if g.Index(id) != i {
			t.Errorf("Index(%q) = %d, want %d", id, g.Index(id), i)
		}
	}
	if g.Index("nope") != -1 {
		t.Errorf("Index(nope) = %d, want -1", g.Index("nope"))
	}
}

func TestBuild_Empty(t *testing.T) {
	g := Build(nil, nil)
	if g.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", g.Len())
	}
	if g.IsEmpty() {
		t.Error("IsEmpty() = true for a graph holding the root")
	}
	if g.Root().HasChildren() {
		t.Error("root of empty graph has children")
	}

	var nilGraph *Graph
	if !nilGraph.IsEmpty() {
		t.Error("nil graph IsEmpty() = false")
	}
	if nilGraph.Has("x") {
		t.Error("nil graph Has(x) = true")
	}
}

func TestBuild_KeepsCycles(t *testing.T) {
	g := Build([]Edge{
		{Child: "A", Parent: "B"},
		{Child: "B", Parent: "A"},
		{Child: "C", Parent: "A"},
	}, nil, WithRoot("R"))

	if diff := cmp.Diff([]string{"B"}, g.ParentIDs("A")); diff != "" {
		t.Errorf("ParentIDs(A) mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A"}, g.ParentIDs("B")); diff != "" {
		t.Errorf("ParentIDs(B) mismatch (-want +got):\n%s", diff)
	}
	if g.Root().HasChildren() {
		t.Errorf("root children = %v, want none (cycle members have parents)", g.ChildIDs("R"))
	}
}

func TestBuild_SkipsEmptyIDs(t *testing.T) {
	g := Build([]Edge{{Child: "", Parent: "A"}, {Child: "B", Parent: ""}}, nil)
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestEdges(t *testing.T) {
	g := Build([]Edge{{Child: "B", Parent: "A"}}, nil, WithRoot("R"))
	want := []Edge{
		{Child: "B", Parent: "A"},
		{Child: "A", Parent: "R"},
	}
	if diff := cmp.Diff(want, g.Edges()); diff != "" {
		t.Errorf("Edges() mismatch (-want +got):\n%s", diff)
	}
}
