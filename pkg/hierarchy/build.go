package hierarchy

import (
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/ontology"
)

// ClampDepth bounds a requested depth to [0, DepthCap].
func ClampDepth(depth int) int {
	return min(max(depth, 0), DepthCap)
}

// Build produces the spanning tree of g rooted at rootID, limited to
// maxDepth levels below the root.
//
// Each entity appears at most once: the first parent to reach it during the
// breadth-first traversal keeps it, ties broken by graph child order. The
// visited set also stops the traversal from looping on cyclic input.
//
// Build fails with ErrCodeEmptyGraph for a nil or empty graph and with
// ErrCodeUnknownRoot when rootID is not registered.
func Build(g *ontology.Graph, rootID string, maxDepth int) (*Tree, error) {
	if g.IsEmpty() {
		return nil, errors.New(errors.ErrCodeEmptyGraph, "graph has no nodes")
	}
	gr, ok := g.Node(rootID)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownRoot, "root %q not in graph", rootID)
	}
	maxDepth = ClampDepth(maxDepth)

	t := &Tree{root: 0}
	t.alloc(gr.ID, gr.Label, 0, NoKey)
	graphNodes := []*ontology.Node{gr}

	visited := map[string]struct{}{gr.ID: {}}
	for head := 0; head < len(t.nodes); head++ {
		n := t.nodes[head]
		if n.Depth >= maxDepth {
			continue
		}
		for _, c := range graphNodes[head].Children {
			if _, seen := visited[c.ID]; seen {
				continue
			}
			visited[c.ID] = struct{}{}
			child := t.alloc(c.ID, c.Label, n.Depth+1, n.Key)
			n.Children = append(n.Children, child.Key)
			graphNodes = append(graphNodes, c)
		}
	}

	// Keys are in BFS order, so every child sits after its parent.
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		n.IsLeaf = len(n.Children) == 0
		n.Expandable = n.IsLeaf && graphNodes[i].HasChildren()
		if !n.IsLeaf {
			n.Value = 0
			for _, c := range n.Children {
				n.Value += t.nodes[c].Value
			}
		}
		t.maxDepth = max(t.maxDepth, n.Depth)
	}
	return t, nil
}
