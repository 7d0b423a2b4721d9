// Package host defines the capability interface through which the
// materializer mutates a node-graph object model it does not own.
//
// A host is whatever application holds the live node graphs: a 3D tool, a
// remote editor, or the in-memory implementation in package memory. The
// materializer only ever talks to these interfaces, so it can be exercised
// without any host runtime.
//
// # Ownership
//
// Graphs, nodes and sockets belong to the host. Handles returned by one call
// remain valid for the lifetime of the graph that produced them. The core
// never removes anything: partial mutations left behind by a failed item stay
// in place.
//
// # Concurrency
//
// Host object models are generally not safe for concurrent mutation. Callers
// must not materialize into the same Graph from more than one goroutine.
package host

import "errors"

// Sentinel errors returned by hosts. Implementations may wrap them.
var (
	// ErrUnknownNodeType is returned by Graph.NewNode for a type the host does not know.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrUnknownProperty is returned by Node.SetProperty for an attribute the node lacks.
	ErrUnknownProperty = errors.New("unknown property")

	// ErrNoDefault is returned when assigning a value to a socket without a default value.
	ErrNoDefault = errors.New("socket has no default value")

	// ErrTypeMismatch is returned when a value cannot be converted to a socket's type.
	ErrTypeMismatch = errors.New("value does not match socket type")
)

// Direction distinguishes the two sides of a graph interface.
type Direction int

const (
	// In is a socket exposed on the group input pseudo-node.
	In Direction = iota
	// Out is a socket exposed on the group output pseudo-node.
	Out
)

// String returns "INPUT" or "OUTPUT".
func (d Direction) String() string {
	if d == Out {
		return "OUTPUT"
	}
	return "INPUT"
}

// Host creates node groups.
type Host interface {
	// CreateNodeGroup creates a new node group named name, attaches it to the
	// target consumer (for example a modifier) replacing any previous group,
	// and performs the host's automatic interface setup. The returned graph
	// may therefore already contain group input and output pseudo-nodes.
	//
	// An error means the host refused the precondition for the whole operation.
	CreateNodeGroup(name string) (Graph, error)
}

// Graph is a mutable node graph.
type Graph interface {
	// Name returns the node group name.
	Name() string

	// Nodes returns the nodes currently in the graph, in creation order.
	Nodes() []Node

	// NewNode creates a node of the given type. An unknown type yields an
	// error wrapping ErrUnknownNodeType.
	NewNode(nodeType string) (Node, error)

	// EnsureInterfaceSocket makes the graph interface expose a socket with the
	// given direction, name and type. It is a no-op when one already exists.
	EnsureInterfaceSocket(dir Direction, name, socketType string) error

	// Link connects an output socket to an input socket. Hosts may replace an
	// existing link into the same input.
	Link(from, to Socket) error

	// SetActiveOutput marks n, a group output pseudo-node, as the active output.
	SetActiveOutput(n Node) error

	// NotifyConsumersChanged asks the host to refresh whatever consumes the graph.
	NotifyConsumersChanged() error
}

// Node is a live node handle.
type Node interface {
	Name() string
	Type() string

	Location() (x, y float64)
	SetLocation(x, y float64)

	// Inputs and Outputs return the node's sockets in declaration order.
	Inputs() []Socket
	Outputs() []Socket

	// SetProperty assigns a node attribute that does not flow through a socket.
	// An attribute the node lacks yields an error wrapping ErrUnknownProperty.
	SetProperty(name string, value any) error
}

// Socket is a named, typed connection point on a node.
type Socket interface {
	Name() string
	Type() string

	// HasDefault reports whether the socket carries an editable default value.
	HasDefault() bool

	// Components returns the number of components of a vector-valued
	// default, or 0 for scalar and value-less sockets.
	Components() int

	// SetDefault assigns a scalar default value.
	SetDefault(v any) error

	// SetComponent assigns component i of a vector-valued default.
	SetComponent(i int, v float64) error
}
