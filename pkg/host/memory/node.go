package memory

import (
	"fmt"

	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/host"
)

// =============================================================================
// Node
// =============================================================================

// Node is an in-memory node.
type Node struct {
	graph   *Graph
	name    string
	typ     string
	label   string
	x, y    float64
	inputs  []*Socket
	outputs []*Socket
	props   map[string]any
	def     *catalog.NodeDef
}

var _ host.Node = (*Node)(nil)

// Name returns the unique node name.
func (n *Node) Name() string { return n.name }

// Type returns the node type.
func (n *Node) Type() string { return n.typ }

// Location returns the layout position.
func (n *Node) Location() (x, y float64) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.x, n.y
}

// SetLocation moves the node.
func (n *Node) SetLocation(x, y float64) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	n.x, n.y = x, y
}

// Inputs returns the input sockets in declaration order.
func (n *Node) Inputs() []host.Socket {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return sockets(n.inputs)
}

// Outputs returns the output sockets in declaration order.
func (n *Node) Outputs() []host.Socket {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return sockets(n.outputs)
}

// Property returns the current value of a node property.
func (n *Node) Property(name string) (any, bool) {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	v, ok := n.props[name]
	return v, ok
}

// SetProperty assigns a catalog-declared property, or the label every node has.
func (n *Node) SetProperty(name string, value any) error {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()

	if name == "label" {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: label must be a string, got %T", host.ErrTypeMismatch, value)
		}
		n.label = s
		return nil
	}

	def, ok := n.propertyDef(name)
	if !ok {
		return fmt.Errorf("%w: %s has no property %q", host.ErrUnknownProperty, n.typ, name)
	}
	if !catalog.SameKind(def.Default, value) {
		return fmt.Errorf("%w: property %q expects %T, got %T", host.ErrTypeMismatch, name, def.Default, value)
	}
	n.props[name] = cloneValue(value)
	return nil
}

func (n *Node) propertyDef(name string) (catalog.PropertyDef, bool) {
	if n.def == nil {
		return catalog.PropertyDef{}, false
	}
	return n.def.Property(name)
}

// addInterfaceSocket mirrors a group interface socket on a pseudo-node:
// inputs of the group are outputs of the group input node and vice versa.
// The caller holds the graph lock.
func (n *Node) addInterfaceSocket(s ifaceSocket) {
	switch {
	case n.typ == descriptor.TypeGroupInput && s.dir == host.In:
		n.outputs = append(n.outputs, newSocket(n, s.name, s.typ, true, len(n.outputs), nil))
	case n.typ == descriptor.TypeGroupOutput && s.dir == host.Out:
		n.inputs = append(n.inputs, newSocket(n, s.name, s.typ, false, len(n.inputs), nil))
	}
}

func sockets(in []*Socket) []host.Socket {
	out := make([]host.Socket, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// =============================================================================
// Socket
// =============================================================================

// Socket is an in-memory socket with a typed default value.
type Socket struct {
	node   *Node
	name   string
	typ    string
	output bool
	index  int
	value  any
}

var _ host.Socket = (*Socket)(nil)

func newSocket(n *Node, name, typ string, output bool, index int, def any) *Socket {
	s := &Socket{node: n, name: name, typ: typ, output: output, index: index}
	if def != nil {
		s.value = cloneValue(def)
	} else {
		s.value = catalog.Zero(typ)
	}
	return s
}

// Name returns the socket name.
func (s *Socket) Name() string { return s.name }

// Type returns the socket type.
func (s *Socket) Type() string { return s.typ }

// HasDefault reports whether the socket carries a default value.
func (s *Socket) HasDefault() bool { return catalog.HasDefault(s.typ) }

// Components returns the component count of vector-valued sockets.
func (s *Socket) Components() int { return catalog.Components(s.typ) }

// Value returns a copy of the current default value.
func (s *Socket) Value() any {
	s.node.graph.mu.Lock()
	defer s.node.graph.mu.Unlock()
	return cloneValue(s.value)
}

// SetDefault assigns the whole default value.
func (s *Socket) SetDefault(v any) error {
	if !s.HasDefault() {
		return fmt.Errorf("%w: %s.%s", host.ErrNoDefault, s.node.name, s.name)
	}
	coerced, err := catalog.Coerce(s.typ, v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", s.node.name, s.name, err)
	}

	s.node.graph.mu.Lock()
	defer s.node.graph.mu.Unlock()
	s.value = coerced
	return nil
}

// SetComponent assigns one component of a vector-valued default.
func (s *Socket) SetComponent(i int, v float64) error {
	n := s.Components()
	if n == 0 {
		return fmt.Errorf("%w: %s.%s is not vector-valued", host.ErrTypeMismatch, s.node.name, s.name)
	}
	if i < 0 || i >= n {
		return fmt.Errorf("%w: component %d out of range for %s.%s", host.ErrTypeMismatch, i, s.node.name, s.name)
	}

	s.node.graph.mu.Lock()
	defer s.node.graph.mu.Unlock()
	s.value.([]float64)[i] = v
	return nil
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...)
	case []any:
		return append([]any(nil), x...)
	}
	return v
}
