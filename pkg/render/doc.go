// Package render groups the renderers for built node groups.
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws a [graph.Snapshot] as a left-to-right
// Graphviz diagram: one record per node with its input and output sockets
// as ports, and one edge per link.
//
//	dot := nodelink.ToDOT(snapshot, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [nodelink]: github.com/matzehuels/geonodes/pkg/render/nodelink
// [graph.Snapshot]: github.com/matzehuels/geonodes/pkg/graph#Snapshot
package render
