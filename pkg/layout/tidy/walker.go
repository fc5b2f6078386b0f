package tidy

import (
	"github.com/matzehuels/taxoview/pkg/hierarchy"
)

// wnode carries the Buchheim walker state for one tree node.
type wnode struct {
	parent   *wnode
	children []*wnode
	depth    int

	ancestor *wnode // a: greatest distinct ancestor candidate
	dflt     *wnode // A: default ancestor of the children
	thread   *wnode // t
	prelim   float64
	mod      float64
	change   float64
	shift    float64
	index    int
	x        float64
}

type point struct{ x, y float64 }

// newWalker mirrors the tree shape. order must be breadth-first.
func newWalker(order []*hierarchy.Node) (*wnode, map[hierarchy.Key]*wnode) {
	byKey := make(map[hierarchy.Key]*wnode, len(order))
	sentinel := &wnode{}
	for _, n := range order {
		w := &wnode{depth: n.Depth}
		w.ancestor = w
		if n.Parent == hierarchy.NoKey {
			w.parent = sentinel
			sentinel.children = []*wnode{w}
		} else {
			p := byKey[n.Parent]
			w.parent = p
			w.index = len(p.children)
			p.children = append(p.children, w)
		}
		byKey[n.Key] = w
	}
	return sentinel.children[0], byKey
}

func separation(a, b *wnode) float64 {
	if a.parent == b.parent {
		return 1
	}
	return 2
}

// solve runs both walks and scales the result into dx (breadth) by dy
// (depth).
func (root *wnode) solve(dx, dy float64) map[*wnode]point {
	root.postOrder(firstWalk)
	root.parent.mod = -root.prelim
	root.preOrder(secondWalk)

	left, right, bottom := root, root, root
	root.preOrder(func(v *wnode) {
		if v.x < left.x {
			left = v
		}
		if v.x > right.x {
			right = v
		}
		if v.depth > bottom.depth {
			bottom = v
		}
	})

	s := 1.0
	if left != right {
		s = separation(left, right) / 2
	}
	tx := s - left.x
	kx := dx / (right.x + s + tx)
	ky := dy / float64(max(bottom.depth, 1))

	out := map[*wnode]point{}
	root.preOrder(func(v *wnode) {
		out[v] = point{x: (v.x + tx) * kx, y: float64(v.depth) * ky}
	})
	return out
}

func (v *wnode) postOrder(fn func(*wnode)) {
	for _, c := range v.children {
		c.postOrder(fn)
	}
	fn(v)
}

func (v *wnode) preOrder(fn func(*wnode)) {
	fn(v)
	for _, c := range v.children {
		c.preOrder(fn)
	}
}

func firstWalk(v *wnode) {
	siblings := v.parent.children
	var w *wnode
	if v.index > 0 {
		w = siblings[v.index-1]
	}

	if n := len(v.children); n > 0 {
		executeShifts(v)
		mid := (v.children[0].prelim + v.children[n-1].prelim) / 2
		if w != nil {
			v.prelim = w.prelim + separation(v, w)
			v.mod = v.prelim - mid
		} else {
			v.prelim = mid
		}
	} else if w != nil {
		v.prelim = w.prelim + separation(v, w)
	}

	dflt := v.parent.dflt
	if dflt == nil {
		dflt = siblings[0]
	}
	v.parent.dflt = apportion(v, w, dflt)
}

func secondWalk(v *wnode) {
	v.x = v.prelim + v.parent.mod
	v.mod += v.parent.mod
}

// apportion pushes v's subtree right until it clears every subtree to its
// left, spreading the shift over the siblings in between.
func apportion(v, w, ancestor *wnode) *wnode {
	if w == nil {
		return ancestor
	}

	vip, vop := v, v
	vim := w
	vom := vip.parent.children[0]
	sip, sop := vip.mod, vop.mod
	sim, som := vim.mod, vom.mod

	for {
		vim, vip = nextRight(vim), nextLeft(vip)
		if vim == nil || vip == nil {
			break
		}
		vom, vop = nextLeft(vom), nextRight(vop)
		vop.ancestor = v
		shift := vim.prelim + sim - vip.prelim - sip + separation(vim, vip)
		if shift > 0 {
			moveSubtree(nextAncestor(vim, v, ancestor), v, shift)
			sip += shift
			sop += shift
		}
		sim += vim.mod
		sip += vip.mod
		som += vom.mod
		sop += vop.mod
	}

	if vim != nil && nextRight(vop) == nil {
		vop.thread = vim
		vop.mod += sim - sop
	}
	if vip != nil && nextLeft(vom) == nil {
		vom.thread = vip
		vom.mod += sip - som
		ancestor = v
	}
	return ancestor
}

func nextLeft(v *wnode) *wnode {
	if len(v.children) > 0 {
		return v.children[0]
	}
	return v.thread
}

func nextRight(v *wnode) *wnode {
	if n := len(v.children); n > 0 {
		return v.children[n-1]
	}
	return v.thread
}

func nextAncestor(vim, v, ancestor *wnode) *wnode {
	if vim.ancestor.parent == v.parent {
		return vim.ancestor
	}
	return ancestor
}

func moveSubtree(wm, wp *wnode, shift float64) {
	change := shift / float64(wp.index-wm.index)
	wp.change -= change
	wp.shift += shift
	wm.change += change
	wp.prelim += shift
	wp.mod += shift
}

func executeShifts(v *wnode) {
	var shift, change float64
	for i := len(v.children) - 1; i >= 0; i-- {
		w := v.children[i]
		w.prelim += shift
		w.mod += shift
		change += w.change
		shift += w.shift + change
	}
}
