// Package path finds the connection between two entities of an ontology
// graph and derives the data needed to highlight it.
//
// # Shape
//
// A [Path] climbs from the start entity to a common ancestor (the pivot) and
// descends to the end entity:
//
//	start -> ... -> pivot -> ... -> end
//	  Up      Up        Down   Down
//
// Up counts ascent steps, Down descent steps, and Height = Up + Down.
// Vertices has Height+1 entries and Directions has Height entries.
//
// # Search
//
// [Find] runs an upward breadth-first search over parent links from each
// endpoint. Both searches keep a visited set, so cycles in the parent
// relation can never trap them; cyclic branches are simply not explored
// twice. The pivot is the shared ancestor with the shortest total
// distance, ties broken by graph registry order, which makes Find(a, b) the
// mirror image of Find(b, a).
//
// # Highlighting
//
// [Path.Stops] normalizes each vertex's position inside its segment, and
// [Highlight] maps those positions through two colour scales. [Strip] lays
// the path out as a row of discs and arrows for a compact legend.
package path
