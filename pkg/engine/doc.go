// Package engine is the command/query facade over the hierarchy engine.
//
// An [Engine] wraps one immutable ontology graph together with the colour
// scales and layout settings of a deployment. All mutable presentation state
// lives in an explicit [View] value that callers own and pass back in, so the
// same engine can serve many sessions:
//
//	eng := engine.New(g)
//	v, err := eng.NewView("Q729", 2)
//	if err != nil {
//	    return err
//	}
//	circles := eng.CirclePacking(v, layout.DefaultBounds())
//
// Engine calls are synchronous. A View and its Tree are not safe for
// concurrent use; callers serializing access per session is enough.
package engine
