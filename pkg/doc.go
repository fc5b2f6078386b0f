// Package pkg provides the core libraries for taxoview.
//
// # Overview
//
// Taxoview turns a child/parent hierarchy, such as the subclass-of relation
// of a knowledge base, into a bounded tree and lays it out as packed circles
// or as a horizontal tidy tree. The pkg directory is organized into four
// areas:
//
//  1. Domain: [ontology], [hierarchy], [path] and [palette]
//  2. Layout and output: [layout], [render]
//  3. Orchestration: [engine], [pipeline], [session]
//  4. Infrastructure: [dataset], [source/neo4j], [cache], [config],
//     [errors], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	Dataset file or Neo4j query
//	         ↓
//	    [dataset] (edges + labels)
//	         ↓
//	    [ontology] (immutable graph, orphans under the root)
//	         ↓
//	    [hierarchy] (bounded breadth-first tree, expand/collapse)
//	         ↓
//	    [layout/pack] or [layout/tidy] (geometry)
//	         ↓
//	    [render/svg], [render/nodelink] (SVG, DOT, JSON)
//
// # Quick Start
//
//	ds, _ := dataset.ReadFile("animals.json")
//	eng := engine.New(ds.Graph())
//
//	v, _ := eng.NewView("Q729", 2)
//	p, _ := eng.FindPath("Q144", "Q26745")
//	_ = eng.SelectPath(v, p)
//
//	l := eng.CirclePacking(v, layout.DefaultBounds())
//	doc := svg.Render(l, svg.WithLabels())
//
// The [pipeline] runs the same steps with caching and is shared by the CLI
// and the HTTP server.
//
// [ontology]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/ontology
// [hierarchy]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/hierarchy
// [path]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/path
// [palette]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/palette
// [layout]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/layout
// [render]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/render
// [engine]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/engine
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/pipeline
// [session]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/session
// [dataset]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/dataset
// [source/neo4j]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/source/neo4j
// [cache]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/observability
//
// [layout/pack]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/layout/pack
// [layout/tidy]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/layout/tidy
// [render/svg]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/render/svg
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/taxoview/pkg/render/nodelink
package pkg
