// Package descriptor defines the JSON wire format for geometry node graph
// descriptors and the validator that guards it.
//
// A descriptor is a declarative description of one node graph: a list of nodes
// to instantiate and a list of links between their sockets. It is decoded once,
// validated once and then consumed by the materializer (see package materialize).
//
// # Wire Format
//
//	{
//	  "name": "GN_translate",
//	  "nodes": [
//	    {"id": "xf", "name": "xf", "type": "GeometryNodeTransform",
//	     "location": [0, 0], "inputs": {"Translation": [1, 0, 0]}}
//	  ],
//	  "links": [
//	    {"from_node": "input", "from_socket": "Geometry", "to_node": "xf", "to_socket": "Geometry"},
//	    {"from_node": "xf", "from_socket": "0", "to_node": "output", "to_socket": "Geometry"}
//	  ]
//	}
//
// The reserved node ids [InputNodeID] and [OutputNodeID] name the implicit
// pseudo-nodes at the graph boundary. Socket references are names, or decimal
// digit strings used as a positional fallback.
//
// # Validation
//
// [Validate] checks the minimal shape of a generic decoded JSON value and reports
// the first failure as a [*ValidationError] with a discriminated [Reason]. [Valid]
// is the boolean form. [ValidateStrict] additionally rejects duplicate node
// identities.
//
// Note that the validator requires every node to carry a "name" while the
// materializer keys nodes by "id" (falling back to "name"). The lenient validator
// keeps that boundary for compatibility with existing descriptor files; use
// [ValidateStrict] when identities must be unambiguous.
//
// # Decoding
//
//	d, err := descriptor.ReadFile("graph.json", descriptor.DecodeOptions{})  // File → Descriptor
//	d, err := descriptor.Decode(data)                                        // []byte → Descriptor
//	data, err := descriptor.Marshal(d)                                       // Descriptor → []byte
//
// All decoding entry points validate before building the typed value. Fields
// of the wrong JSON type do not reject the descriptor: the affected node or
// link is trimmed or dropped and reported in [Descriptor.Issues].
package descriptor
