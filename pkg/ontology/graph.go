package ontology

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// DefaultRootID is the well-known root entity ("entity" in Wikidata).
	// Parentless nodes are attached beneath it.
	DefaultRootID = "Q35120"

	// RelationSubclassOf and RelationPartOf are the relation ids found in
	// Wikidata-derived hierarchy files. They are informational only.
	RelationSubclassOf = "P279"
	RelationPartOf     = "P361"
)

// Edge is a directed child -> parent relation.
type Edge struct {
	Child    string `json:"child" yaml:"child"`
	Parent   string `json:"parent" yaml:"parent"`
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
}

// Node is a vertex of the ontology graph. Parents and Children are
// deduplicated and keep the order in which the edges were first seen.
type Node struct {
	ID       string
	Label    string
	Parents  []*Node
	Children []*Node
}

// HasChildren reports whether the node has at least one graph child.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Graph is an immutable ontology graph with an insertion-ordered registry.
// The zero value is not usable; create one with [Build].
type Graph struct {
	root     *Node
	registry *orderedmap.OrderedMap[string, *Node]
	index    map[string]int
	edges    int
}

type options struct {
	rootID string
}

// Option configures [Build].
type Option func(*options)

// WithRoot overrides the id of the node that receives orphans.
func WithRoot(id string) Option {
	return func(o *options) {
		if id != "" {
			o.rootID = id
		}
	}
}

// Build constructs a graph from child -> parent edges and a label dictionary.
// Build never fails: empty ids are skipped, self-loops and duplicate edges are
// ignored, and missing labels fall back to the id. With no edges the graph
// holds only the root.
func Build(edges []Edge, labels map[string]string, opts ...Option) *Graph {
	o := options{rootID: DefaultRootID}
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{registry: orderedmap.New[string, *Node]()}
	node := func(id string) *Node {
		if n, ok := g.registry.Get(id); ok {
			return n
		}
		label := labels[id]
		if label == "" {
			label = id
		}
		n := &Node{ID: id, Label: label}
		g.registry.Set(id, n)
		return n
	}

	seen := make(map[[2]string]struct{}, len(edges))
	for _, e := range edges {
		if e.Child == "" || e.Parent == "" {
			continue
		}
		child, parent := node(e.Child), node(e.Parent)
		if e.Child == e.Parent {
			continue
		}
		k := [2]string{e.Child, e.Parent}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		parent.Children = append(parent.Children, child)
		child.Parents = append(child.Parents, parent)
		g.edges++
	}

	g.root = node(o.rootID)
	for pair := g.registry.Oldest(); pair != nil; pair = pair.Next() {
		n := pair.Value
		if n == g.root || len(n.Parents) > 0 {
			continue
		}
		g.root.Children = append(g.root.Children, n)
		n.Parents = append(n.Parents, g.root)
		g.edges++
	}
	_ = g.registry.MoveToFront(o.rootID)

	g.index = make(map[string]int, g.registry.Len())
	i := 0
	for pair := g.registry.Oldest(); pair != nil; pair = pair.Next() {
		g.index[pair.Key] = i
		i++
	}
	return g
}

// Root returns the root node.
func (g *Graph) Root() *Node { return g.root }

// RootID returns the id of the root node.
func (g *Graph) RootID() string { return g.root.ID }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g == nil || g.registry == nil {
		return nil, false
	}
	return g.registry.Get(id)
}

// Has reports whether id is registered.
func (g *Graph) Has(id string) bool {
	_, ok := g.Node(id)
	return ok
}

// Label returns the display label for id, or id itself when unknown.
func (g *Graph) Label(id string) string {
	if n, ok := g.Node(id); ok {
		return n.Label
	}
	return id
}

// Index returns the registry position of id, or -1 when unknown.
func (g *Graph) Index(id string) int {
	if g == nil {
		return -1
	}
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	if g == nil || g.registry == nil {
		return 0
	}
	return g.registry.Len()
}

// IsEmpty reports whether the graph has no nodes. Only a nil or zero Graph
// is empty; [Build] always registers the root.
func (g *Graph) IsEmpty() bool { return g.Len() == 0 }

// EdgeCount returns the number of distinct parent links, including the
// synthetic links from the root to former orphans.
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	return g.edges
}

// Nodes returns all nodes in registry order, root first.
func (g *Graph) Nodes() []*Node {
	if g.IsEmpty() {
		return nil
	}
	out := make([]*Node, 0, g.registry.Len())
	for pair := g.registry.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// ChildIDs returns the ids of a node's children in insertion order.
func (g *Graph) ChildIDs(id string) []string {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	return ids(n.Children)
}

// ParentIDs returns the ids of a node's parents in insertion order.
func (g *Graph) ParentIDs(id string) []string {
	n, ok := g.Node(id)
	if !ok {
		return nil
	}
	return ids(n.Parents)
}

// Edges returns every parent link as child -> parent pairs, in registry order
// of the child.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, n := range g.Nodes() {
		for _, p := range n.Parents {
			out = append(out, Edge{Child: n.ID, Parent: p.ID})
		}
	}
	return out
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}
