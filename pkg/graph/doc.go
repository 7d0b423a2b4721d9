// Package graph provides the serialization format for built node graphs.
//
// A descriptor (package descriptor) says what graph should exist; a [Snapshot]
// records what a host actually holds after materialization. Snapshots are used
// for the CLI --snapshot export, the HTTP API response body, diagram rendering
// and cache keys.
//
// # Architecture
//
// The package sits at the serialization boundary:
//
//   - descriptor.Descriptor: the requested graph (input)
//   - host.Graph: the live graph owned by a host
//   - [Snapshot]: a plain-data copy of a host graph (this package)
//
// The in-memory host produces snapshots through its Snapshot method; the
// diagram renderer (package nodelink) consumes them.
//
// # Constants
//
// This package is the single source of truth for output formats:
//
//	graph.FormatJSON   // "json"
//	graph.FormatDOT    // "dot"
//	graph.FormatSVG    // "svg"
//
// # Snapshot Format
//
//	{
//	  "name": "GN_translate",
//	  "object": "Cube",
//	  "modifier": "GeometryNodes",
//	  "active_output": "Group Output",
//	  "interface": [{"direction": "INPUT", "name": "Geometry", "type": "GEOMETRY"}],
//	  "nodes": [
//	    {"name": "Transform", "type": "GeometryNodeTransform", "location": [0, 0],
//	     "inputs": [{"name": "Translation", "type": "VECTOR", "default": [1, 0, 0]}]}
//	  ],
//	  "links": [
//	    {"from_node": "Group Input", "from_socket": "Geometry", "from_index": 0,
//	     "to_node": "Transform", "to_socket": "Geometry", "to_index": 0, "valid": true}
//	  ]
//	}
//
// [Marshal] and [Write] sort nodes by name and links by destination so the
// same graph always serializes to the same bytes.
package graph
