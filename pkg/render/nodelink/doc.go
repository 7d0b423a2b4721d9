// Package nodelink renders built node graphs as node-link diagrams.
//
// # Overview
//
// This package turns a [graph.Snapshot] into a Graphviz diagram. Every node
// is drawn as a record with its input sockets on the left and its output
// sockets on the right, and every link connects the two socket ports. The
// diagram shows structure only; it does not evaluate the graph.
//
// # Usage
//
// Convert a snapshot to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(snapshot, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Options
//
// The [Options] struct controls diagram generation:
//
//   - Detailed: When true, labels include node properties and the default
//     values of unlinked inputs.
//
// # Styling
//
// The generated DOT uses left-to-right layout (rankdir=LR), matching the way
// node editors lay out data flow. Group input and output nodes are filled
// grey, the active output node has a heavy outline, and links the host
// marked invalid (for example a vector output feeding a geometry input) are
// dashed red.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. No external Graphviz installation is required.
package nodelink
