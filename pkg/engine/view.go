package engine

import (
	"slices"

	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/path"
)

// Crumb is one entry of the breadcrumb trail.
type Crumb struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// View is the mutable presentation state of one session.
type View struct {
	RootID   string          `json:"root_id"`
	Depth    int             `json:"depth"`     // requested depth
	MaxDepth int             `json:"max_depth"` // reachable depth below RootID
	Tree     *hierarchy.Tree `json:"tree"`
	Path     *path.Path      `json:"path,omitempty"`
	Trail    []Crumb         `json:"trail"`

	// Entities mapped onto the left and right edge of the canvas.
	Left  []string `json:"left,omitempty"`
	Right []string `json:"right,omitempty"`
}

// NewView builds a view rooted at rootID, or at the graph root when rootID
// is empty. The requested depth is clamped to what is reachable below the
// root within the probe depth. Depth 0 is treated as 1.
func (e *Engine) NewView(rootID string, depth int) (*View, error) {
	if rootID == "" && e.graph != nil && !e.graph.IsEmpty() {
		rootID = e.graph.RootID()
	}
	v := &View{}
	if err := e.reroot(v, rootID, depth); err != nil {
		return nil, err
	}
	v.Trail = []Crumb{e.crumb(rootID)}
	return v, nil
}

// reroot rebuilds v's tree at rootID, keeping Path and Trail.
func (e *Engine) reroot(v *View, rootID string, depth int) error {
	probe, err := e.BuildTree(rootID, e.probeDepth)
	if err != nil {
		return err
	}
	reach := probe.MaxDepth()

	depth = hierarchy.ClampDepth(depth)
	if depth == 0 {
		depth = 1
	}
	depth = min(depth, max(reach, 1))

	t := probe
	if depth != e.probeDepth {
		if t, err = e.BuildTree(rootID, depth); err != nil {
			return err
		}
	}

	v.RootID = rootID
	v.Depth = depth
	v.MaxDepth = max(reach, 1)
	v.Tree = t
	return nil
}

// Focus zooms into id. The entities between the old root and id, as shown
// in the current tree, are appended to the trail.
func (e *Engine) Focus(v *View, id string) error {
	n, ok := e.graph.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "entity %q not in graph", id)
	}
	if !n.HasChildren() {
		return errors.New(errors.ErrCodeInvalidInput, "entity %q has no children", id)
	}
	if id == v.RootID {
		return nil
	}

	var crumbs []Crumb
	if v.Tree != nil {
		if keys := v.Tree.Find(id); len(keys) > 0 {
			anc := v.Tree.Ancestors(keys[0])
			// Ancestors ends at the tree root, which is already on the trail.
			for i := len(anc) - 2; i >= 0; i-- {
				a, _ := v.Tree.Node(anc[i])
				crumbs = append(crumbs, Crumb{ID: a.ID, Label: a.Label})
			}
		}
	}
	crumbs = append(crumbs, e.crumb(id))

	if err := e.reroot(v, id, v.Depth); err != nil {
		return err
	}
	v.Trail = append(v.Trail, crumbs...)
	return nil
}

// Back returns to trail entry i and drops the entries after it.
func (e *Engine) Back(v *View, i int) error {
	if i < 0 || i >= len(v.Trail) {
		return errors.New(errors.ErrCodeInvalidInput, "trail index %d out of range [0, %d)", i, len(v.Trail))
	}
	if err := e.reroot(v, v.Trail[i].ID, v.Depth); err != nil {
		return err
	}
	v.Trail = v.Trail[:i+1]
	return nil
}

// SelectPath makes p the active path. The view is re-rooted at the pivot
// with depth min(height, DepthCap), the trail restarts at the pivot and
// every subtree off the path is collapsed. The path's start is mapped to
// the left edge and its end to the right. The reachable-depth probe is
// skipped so long paths stay fully visible.
func (e *Engine) SelectPath(v *View, p *path.Path) error {
	if p == nil || len(p.Vertices) == 0 {
		return errors.New(errors.ErrCodeInvalidPath, "empty path")
	}
	pivot := p.Pivot()
	depth := max(min(p.Height, hierarchy.DepthCap), 1)
	t, err := e.BuildTree(pivot, depth)
	if err != nil {
		return err
	}
	hierarchy.Prune(t, p.Set())

	v.RootID = pivot
	v.Depth = depth
	v.MaxDepth = max(t.MaxDepth(), 1)
	v.Tree = t
	v.Path = p
	v.Trail = []Crumb{e.crumb(pivot)}
	v.Left = []string{p.Vertices[0]}
	v.Right = []string{p.Vertices[len(p.Vertices)-1]}
	return nil
}

// ClearPath drops the active path together with the endpoint mappings
// SelectPath made, unless they have been replaced since. The tree is left
// as is.
func (e *Engine) ClearPath(v *View) {
	if p := v.Path; p != nil && len(p.Vertices) > 0 {
		if slices.Equal(v.Left, p.Vertices[:1]) {
			v.Left = nil
		}
		if slices.Equal(v.Right, p.Vertices[len(p.Vertices)-1:]) {
			v.Right = nil
		}
	}
	v.Path = nil
	if v.Tree != nil {
		v.Tree.ClearColors()
	}
}

func (e *Engine) crumb(id string) Crumb {
	return Crumb{ID: id, Label: e.graph.Label(id)}
}
