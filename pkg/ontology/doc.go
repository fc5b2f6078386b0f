// Package ontology provides the graph model and node registry that every
// other taxoview package reads from.
//
// # Overview
//
// An ontology is a directed graph of entities linked by child -> parent
// relations such as "subclass of" or "part of". Real knowledge bases are
// not trees: an entity may have many parents, and cycles do occur in
// crowd-edited data. The [Graph] stores that structure verbatim and never
// rejects it. Consumers that need acyclic views (tree construction, path
// finding) protect themselves with visited sets.
//
// # Building
//
// [Build] turns an edge list and a label dictionary into a [Graph]:
//
//	g := ontology.Build([]ontology.Edge{
//	    {Child: "Q5", Parent: "Q215627"},
//	    {Child: "Q215627", Parent: "Q35120"},
//	}, map[string]string{"Q5": "human"})
//
// Duplicate edges are linked once. Self-loops are dropped. Nodes without a
// parent are attached beneath a single well-known root ([DefaultRootID] unless
// [WithRoot] is given), so every node is reachable from it. A missing label
// falls back to the node id.
//
// # Registry Order
//
// Nodes are kept in an insertion-ordered registry with the root first, then
// every other node in order of first appearance in the edge list. [Graph.Nodes]
// and [Graph.Index] expose that order; it is the deterministic tie-breaker
// used by path finding.
//
// # Concurrency
//
// A [Graph] is immutable after [Build] returns and is safe for concurrent
// readers.
package ontology
