// Package hierarchy projects an ontology graph onto a bounded spanning tree
// and mutates that tree locally as the user navigates.
//
// # Overview
//
// [Build] runs a breadth-first traversal from a root entity, keeping the first
// parent that reaches each node. Traversal stops at a depth limit, so very
// large graphs produce small trees. Nodes at the boundary whose entity still
// has children are flagged [Node.Expandable].
//
// Every node carries a Value: 1 for a leaf, the sum of the children's values
// for an internal node. Circle packing sizes discs from it.
//
// # Arena
//
// A [Tree] is an arena of [Node] values addressed by [Key]. Parent links are
// keys rather than pointers, which keeps the tree trivially serializable and
// lets the same entity appear twice (after an expand below a node whose
// children were visited elsewhere) without identity confusion.
//
// # Mutation
//
// [Tree.Expand] grafts one level of children below a leaf; [Tree.Collapse]
// drops a node's descendants. Both repair Value along the ancestor chain only,
// so their cost is proportional to the tree depth plus the grafted or freed
// nodes, never to the whole tree. [Prune] collapses every node that is not on
// a given set of entities, which is how a path-focused tree is produced.
//
// # Concurrency
//
// A Tree is not safe for concurrent mutation. Callers serialize access.
package hierarchy
