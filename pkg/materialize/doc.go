// Package materialize turns a validated descriptor into live nodes and links
// inside a host graph.
//
// The materializer is a single linear pipeline:
//
//  1. Endpoint setup: reuse the first group input and group output nodes of
//     the graph, or create them, make the graph interface expose Geometry on
//     both sides, and seed the id map with the sentinel ids "input" and
//     "output". Running twice on the same graph never creates a second
//     pseudo-node.
//  2. Node instantiation: create every non-pseudo node in descriptor order,
//     position it, record it under its id (or its name when the id is
//     absent) and apply its inputs and properties.
//  3. Link resolution: rewrite sentinel references, look up both nodes, then
//     resolve sockets by exact name with a positional fallback for digit
//     strings, and link them.
//  4. Fallback: when no link was created, connect the group input's first
//     output to the group output's first input.
//  5. Finalization: mark the group output active and ask the host to refresh
//     the graph's consumers.
//
// # Error Containment
//
// Failures are contained per item. An unknown node type, an unresolvable
// link or a rejected value becomes a [Diagnostic] on the [Result] and the
// run continues; nothing is rolled back. The only fatal failure is the host
// refusing to create the node group in [Materializer.Apply], which yields
// Result.OK == false and an error with code HOST_PRECONDITION.
//
// # Values
//
// Scalars are assigned to sockets that carry a default value. Sequences are
// assigned component-wise to vector sockets; a sequence longer than the
// socket is truncated and a shorter one leaves the remaining components
// untouched. Unknown socket and property names are ignored.
//
// # Duplicate Ids
//
// Two nodes sharing an id both get built, but links resolve to the later one.
// The overwrite is reported as a DUPLICATE_NODE_ID diagnostic. Use
// descriptor.ValidateStrict to reject such descriptors up front.
package materialize
