package hierarchy

import (
	"github.com/matzehuels/taxoview/pkg/ontology"
)

// Expand grafts the immediate graph children of a leaf below it and returns
// the new overall tree depth, max(MaxDepth, leaf depth + 1).
//
// Expanding a node that already has children, or whose entity has no
// children in g, changes nothing and returns the current depth.
func (t *Tree) Expand(g *ontology.Graph, k Key) (int, error) {
	n, err := t.lookup(k)
	if err != nil {
		return t.maxDepth, err
	}
	if !n.IsLeaf {
		return t.maxDepth, nil
	}

	sub, err := Build(g, n.ID, 1)
	if err != nil {
		return t.maxDepth, err
	}
	grafts := sub.Children(sub.root)
	if len(grafts) == 0 {
		n.Expandable = false
		return t.maxDepth, nil
	}

	for _, s := range grafts {
		child := t.alloc(s.ID, s.Label, n.Depth+1, k)
		child.Expandable = s.Expandable
		n.Children = append(n.Children, child.Key)
	}
	n.IsLeaf = false
	n.Expandable = false
	t.propagate(k)

	t.maxDepth = max(t.maxDepth, n.Depth+1)
	return t.maxDepth, nil
}

// Collapse discards every descendant of k and turns it back into an
// expandable leaf with Value 1. Collapsing a leaf is a no-op.
func (t *Tree) Collapse(k Key) error {
	n, err := t.lookup(k)
	if err != nil {
		return err
	}
	if n.IsLeaf {
		return nil
	}

	stack := append([]Key(nil), n.Children...)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stack = append(stack, t.nodes[c].Children...)
		t.release(c)
	}

	n.Children = nil
	n.IsLeaf = true
	n.Expandable = true
	n.Value = 1
	t.propagate(n.Parent)
	return nil
}

// propagate recomputes Value from k up to the root.
func (t *Tree) propagate(k Key) {
	for k != NoKey {
		n := t.nodes[k]
		if len(n.Children) > 0 {
			n.Value = 0
			for _, c := range n.Children {
				n.Value += t.nodes[c].Value
			}
		}
		k = n.Parent
	}
}

// Prune collapses every node whose entity is not in keep. Nodes in keep
// stay open, so the result shows the kept entities and their direct
// children only.
func Prune(t *Tree, keep map[string]bool) {
	var off []Key
	t.Walk(func(n *Node) bool {
		if keep[n.ID] {
			return true
		}
		if !n.IsLeaf {
			off = append(off, n.Key)
		}
		return false
	})
	for _, k := range off {
		_ = t.Collapse(k)
	}
}
