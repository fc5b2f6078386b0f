package hierarchy

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/taxoview/pkg/errors"
)

const (
	// DefaultMaxDepth is the depth used when the caller has no preference.
	DefaultMaxDepth = 3

	// DepthCap bounds every requested depth.
	DepthCap = 6
)

// Key addresses a node inside a [Tree].
type Key int

// NoKey is the parent of the root.
const NoKey Key = -1

// Node is one tree node. It is owned by its Tree; mutate it only through
// Tree methods.
type Node struct {
	Key        Key    `json:"key"`
	ID         string `json:"id"`
	Label      string `json:"label"`
	Depth      int    `json:"depth"`
	Value      int    `json:"value"`
	IsLeaf     bool   `json:"is_leaf"`
	Expandable bool   `json:"expandable,omitempty"`
	Color      string `json:"color,omitempty"`
	Parent     Key    `json:"parent"`
	Children   []Key  `json:"children,omitempty"`
}

// Tree is an arena-backed rooted tree.
type Tree struct {
	nodes    []*Node
	free     []Key
	root     Key
	maxDepth int
	live     int
}

func (t *Tree) alloc(id, label string, depth int, parent Key) *Node {
	n := &Node{ID: id, Label: label, Depth: depth, Value: 1, IsLeaf: true, Parent: parent}
	if len(t.free) > 0 {
		n.Key = t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[n.Key] = n
	} else {
		n.Key = Key(len(t.nodes))
		t.nodes = append(t.nodes, n)
	}
	t.live++
	return n
}

func (t *Tree) release(k Key) {
	t.nodes[k] = nil
	t.free = append(t.free, k)
	t.live--
}

// Root returns the root node.
func (t *Tree) Root() *Node { return t.nodes[t.root] }

// RootKey returns the key of the root node.
func (t *Tree) RootKey() Key { return t.root }

// MaxDepth returns the deepest level the tree has reached, including levels
// added by [Tree.Expand].
func (t *Tree) MaxDepth() int { return t.maxDepth }

// Len returns the number of live nodes.
func (t *Tree) Len() int { return t.live }

// Node returns the node stored under k.
func (t *Tree) Node(k Key) (*Node, bool) {
	if k < 0 || int(k) >= len(t.nodes) || t.nodes[k] == nil {
		return nil, false
	}
	return t.nodes[k], true
}

func (t *Tree) lookup(k Key) (*Node, error) {
	n, ok := t.Node(k)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "no tree node with key %d", k)
	}
	return n, nil
}

// Children returns the child nodes of k in display order.
func (t *Tree) Children(k Key) []*Node {
	n, ok := t.Node(k)
	if !ok {
		return nil
	}
	out := make([]*Node, len(n.Children))
	for i, c := range n.Children {
		out[i] = t.nodes[c]
	}
	return out
}

// Walk visits nodes in pre-order. Returning false from fn skips the
// node's descendants.
func (t *Tree) Walk(fn func(*Node) bool) {
	stack := []Key{t.root}
	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[k]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Nodes returns all live nodes in pre-order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, t.live)
	t.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}

// BreadthFirst returns all live nodes level by level, children in display
// order.
func (t *Tree) BreadthFirst() []*Node {
	out := make([]*Node, 0, t.live)
	out = append(out, t.nodes[t.root])
	for head := 0; head < len(out); head++ {
		for _, c := range out[head].Children {
			out = append(out, t.nodes[c])
		}
	}
	return out
}

// Find returns the keys of every node showing entity id, in pre-order.
func (t *Tree) Find(id string) []Key {
	var out []Key
	t.Walk(func(n *Node) bool {
		if n.ID == id {
			out = append(out, n.Key)
		}
		return true
	})
	return out
}

// Ancestors returns the keys from k's parent up to the root.
func (t *Tree) Ancestors(k Key) []Key {
	n, ok := t.Node(k)
	if !ok {
		return nil
	}
	var out []Key
	for p := n.Parent; p != NoKey; p = t.nodes[p].Parent {
		out = append(out, p)
	}
	return out
}

// SetColor overrides the fill colour of a node. An empty colour restores
// depth-based colouring.
func (t *Tree) SetColor(k Key, color string) error {
	n, err := t.lookup(k)
	if err != nil {
		return err
	}
	n.Color = color
	return nil
}

// ClearColors removes every colour override.
func (t *Tree) ClearColors() {
	for _, n := range t.nodes {
		if n != nil {
			n.Color = ""
		}
	}
}

// MaxWidth returns the size of the widest level. The root level counts as 1.
func MaxWidth(t *Tree) int {
	if t == nil {
		return 0
	}
	widths := map[int]int{}
	best := 0
	t.Walk(func(n *Node) bool {
		widths[n.Depth]++
		if widths[n.Depth] > best {
			best = widths[n.Depth]
		}
		return true
	})
	return best
}

// Signature returns a compact description of the tree's shape, suitable
// for cache keys.
func (t *Tree) Signature() string {
	var b []byte
	t.Walk(func(n *Node) bool {
		b = fmt.Appendf(b, "%s/%d/%d;", n.ID, n.Depth, len(n.Children))
		return true
	})
	return string(b)
}

type treeJSON struct {
	Root     Key     `json:"root"`
	MaxDepth int     `json:"max_depth"`
	Nodes    []*Node `json:"nodes"`
}

// MarshalJSON encodes the live nodes in pre-order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(treeJSON{Root: t.root, MaxDepth: t.maxDepth, Nodes: t.Nodes()})
}

// UnmarshalJSON restores a tree written by MarshalJSON. The nodes must form
// one tree under the root: the root has no parent, every other node is
// listed exactly once by its parent, and every node is reachable. On error
// t is left unchanged.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Nodes) == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "tree has no nodes")
	}

	size := 0
	for _, n := range raw.Nodes {
		if n == nil || n.Key < 0 {
			return errors.New(errors.ErrCodeInvalidFormat, "tree node with invalid key")
		}
		size = max(size, int(n.Key)+1)
	}

	out := Tree{nodes: make([]*Node, size), root: raw.Root, maxDepth: raw.MaxDepth}
	for _, n := range raw.Nodes {
		if out.nodes[n.Key] != nil {
			return errors.New(errors.ErrCodeInvalidFormat, "duplicate tree key %d", n.Key)
		}
		out.nodes[n.Key] = n
		out.live++
	}
	root, ok := out.Node(out.root)
	if !ok {
		return errors.New(errors.ErrCodeInvalidFormat, "root key %d not present", out.root)
	}
	if root.Parent != NoKey {
		return errors.New(errors.ErrCodeInvalidFormat, "root %d has parent %d", root.Key, root.Parent)
	}
	if err := out.checkLinks(); err != nil {
		return err
	}

	for i, n := range out.nodes {
		if n == nil {
			out.free = append(out.free, Key(i))
		}
	}
	*t = out
	return nil
}

// checkLinks walks the tree from the root without trusting it: each child
// must point back at its parent and be seen once, and the walk must cover
// every live node.
func (t *Tree) checkLinks() error {
	seen := make([]bool, len(t.nodes))
	seen[t.root] = true
	queue := []Key{t.root}
	for len(queue) > 0 {
		n := t.nodes[queue[0]]
		queue = queue[1:]
		for _, c := range n.Children {
			child, ok := t.Node(c)
			if !ok || child.Parent != n.Key || c == n.Key {
				return errors.New(errors.ErrCodeInvalidFormat, "broken child link %d -> %d", n.Key, c)
			}
			if seen[c] {
				return errors.New(errors.ErrCodeInvalidFormat, "node %d listed twice", c)
			}
			seen[c] = true
			queue = append(queue, c)
		}
	}
	reached := 0
	for _, ok := range seen {
		if ok {
			reached++
		}
	}
	if reached != t.live {
		return errors.New(errors.ErrCodeInvalidFormat, "%d of %d nodes unreachable from the root", t.live-reached, t.live)
	}
	return nil
}
