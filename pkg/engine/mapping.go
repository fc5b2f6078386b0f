package engine

import (
	"github.com/matzehuels/taxoview/pkg/errors"
	"github.com/matzehuels/taxoview/pkg/hierarchy"
	"github.com/matzehuels/taxoview/pkg/layout"
)

// Side is the canvas edge a mapping is drawn from.
type Side string

// Mapping sides.
const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// mappingInset is the share of the target radius a mapping arrow stops
// short of the target centre.
const mappingInset = 0.4

// ParseSide accepts "left" and "right".
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLeft, SideRight:
		return Side(s), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "invalid mapping side %q (must be left or right)", s)
	}
}

// Map sets the entities mapped onto one side of v, replacing what was
// there. Duplicates are dropped; no ids clears the side.
func (e *Engine) Map(v *View, side Side, ids []string) error {
	if v == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no view")
	}
	if _, err := ParseSide(string(side)); err != nil {
		return err
	}
	var kept []string
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !e.graph.Has(id) {
			return errors.New(errors.ErrCodeUnknownNode, "entity %q not in graph", id)
		}
		if !seen[id] {
			seen[id] = true
			kept = append(kept, id)
		}
	}
	if side == SideLeft {
		v.Left = kept
	} else {
		v.Right = kept
	}
	return nil
}

// MapTargets returns the tree nodes that stand for the given entities:
// every occurrence of an entity that is in the tree, otherwise its nearest
// ancestors in the tree along each upward branch. Entities with no ancestor
// in the tree have no target.
func (e *Engine) MapTargets(t *hierarchy.Tree, ids []string) []hierarchy.Key {
	if t == nil {
		return nil
	}
	var out []hierarchy.Key
	taken := map[hierarchy.Key]bool{}
	for _, id := range ids {
		visited := map[string]bool{id: true}
		queue := []string{id}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if keys := t.Find(cur); len(keys) > 0 {
				for _, k := range keys {
					if !taken[k] {
						taken[k] = true
						out = append(out, k)
					}
				}
				continue
			}
			for _, p := range e.graph.ParentIDs(cur) {
				if !visited[p] {
					visited[p] = true
					queue = append(queue, p)
				}
			}
		}
	}
	return out
}

// mappingArrows points one arrow from the middle of each canvas edge at
// every circle targeted by that side's mapping.
func (e *Engine) mappingArrows(v *View, l layout.Layout) []layout.Arrow {
	if len(v.Left) == 0 && len(v.Right) == 0 {
		return nil
	}
	index := make(map[int]int, len(l.Circles))
	for i, c := range l.Circles {
		index[c.Key] = i
	}

	var arrows []layout.Arrow
	for _, m := range []struct {
		side Side
		ids  []string
	}{{SideLeft, v.Left}, {SideRight, v.Right}} {
		for _, k := range e.MapTargets(v.Tree, m.ids) {
			i, ok := index[int(k)]
			if !ok {
				continue
			}
			c := l.Circles[i]
			a := layout.Arrow{
				ID:        len(arrows),
				Side:      string(m.side),
				SourceKey: layout.NoParent,
				TargetKey: c.Key,
				SourceY:   l.Height / 2,
				TargetX:   c.X - c.R*mappingInset,
				TargetY:   c.Y,
			}
			if m.side == SideRight {
				a.SourceX = l.Width
				a.TargetX = c.X + c.R*mappingInset
			}
			arrows = append(arrows, a)
		}
	}
	return arrows
}
