package hierarchy_test

import (
	"fmt"

	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/ontology"
)

func ExampleTree_Expand() {
	g := ontology.Build([]ontology.Edge{
		{Child: "dog", Parent: "mammal"},
		{Child: "cat", Parent: "mammal"},
		{Child: "mammal", Parent: "animal"},
		{Child: "bird", Parent: "animal"},
	}, nil, ontology.WithRoot("animal"))

	tree, _ := hierarchy.Build(g, "animal", 1)
	fmt.Println("value:", tree.Root().Value, "depth:", tree.MaxDepth())

	mammal := tree.Find("mammal")[0]
	depth, _ := tree.Expand(g, mammal)
	fmt.Println("value:", tree.Root().Value, "depth:", depth)

	_ = tree.Collapse(mammal)
	fmt.Println("value:", tree.Root().Value, "nodes:", tree.Len())
	// Output:
	// value: 2 depth: 1
	// value: 3 depth: 2
	// value: 2 nodes: 3
}
