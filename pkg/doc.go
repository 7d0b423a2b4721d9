// Package pkg provides the core libraries for geonodes.
//
// # Overview
//
// geonodes takes a JSON graph descriptor (a list of nodes and a list of
// links), validates it, and materializes it into a geometry node group
// inside a host that knows how to create nodes, sockets and links. The pkg
// directory is organized into four areas:
//
//  1. Descriptors - [descriptor] validation and decoding, [presets]
//  2. Hosts - [host] capability interface, [host/memory] reference host, [catalog]
//  3. Materialization - [materialize], producing a [graph] snapshot
//  4. Delivery - [pipeline], [render/nodelink], [cache], [observability]
//
// # Architecture
//
// The typical data flow:
//
//	descriptor JSON or preset
//	         ↓
//	    [descriptor] package (schema check, decode)
//	         ↓
//	    [materialize] package (endpoints → nodes → links → fallback → finalize)
//	         ↓
//	    [host] (in-memory node group built from the [catalog])
//	         ↓
//	    [graph] snapshot → JSON, DOT or SVG
//
// # Quick Start
//
// Validate a descriptor and build it:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/geonodes/pkg/catalog"
//	    "github.com/matzehuels/geonodes/pkg/descriptor"
//	    "github.com/matzehuels/geonodes/pkg/host/memory"
//	    "github.com/matzehuels/geonodes/pkg/materialize"
//	)
//
//	// 1. Validate and decode
//	d, err := descriptor.ReadFile("graph.json", descriptor.DecodeOptions{})
//
//	// 2. Materialize into a host
//	h := memory.NewHost(catalog.Default())
//	res, err := materialize.New(materialize.Options{}, nil).Apply(context.Background(), d, h)
//
//	// 3. Inspect what was skipped
//	for _, diag := range res.Diagnostics {
//	    fmt.Println(diag)
//	}
//
// # Main Packages
//
// [descriptor] - The descriptor schema. [descriptor.Validate] checks the
// structural rules on raw JSON; [descriptor.ValidateStrict] also rejects
// duplicate node ids.
//
// [materialize] - Builds a descriptor into a host graph. Failures are
// contained per node and per link and reported as diagnostics.
//
// [host] - The capability interface the materializer drives. [host/memory]
// implements it from a [catalog] of node types loaded from TOML.
//
// [pipeline] - Load, apply and render, shared by the CLI and the HTTP API.
// Diagrams are cached in a [cache] backend (file or Redis).
//
// [render/nodelink] - Graphviz DOT and SVG diagrams of a built node group.
//
// [descriptor]: github.com/matzehuels/geonodes/pkg/descriptor
// [descriptor.Validate]: github.com/matzehuels/geonodes/pkg/descriptor#Validate
// [descriptor.ValidateStrict]: github.com/matzehuels/geonodes/pkg/descriptor#ValidateStrict
// [presets]: github.com/matzehuels/geonodes/pkg/presets
// [host]: github.com/matzehuels/geonodes/pkg/host
// [host/memory]: github.com/matzehuels/geonodes/pkg/host/memory
// [catalog]: github.com/matzehuels/geonodes/pkg/catalog
// [materialize]: github.com/matzehuels/geonodes/pkg/materialize
// [graph]: github.com/matzehuels/geonodes/pkg/graph
// [pipeline]: github.com/matzehuels/geonodes/pkg/pipeline
// [render/nodelink]: github.com/matzehuels/geonodes/pkg/render/nodelink
// [cache]: github.com/matzehuels/geonodes/pkg/cache
// [observability]: github.com/matzehuels/geonodes/pkg/observability
package pkg
