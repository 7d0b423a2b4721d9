package memory

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/host"
)

type ifaceSocket struct {
	dir  host.Direction
	name string
	typ  string
}

type link struct {
	from, to *Socket
}

// Graph is an in-memory node group.
type Graph struct {
	host   *Host
	name   string
	object string

	mu        sync.Mutex
	nodes     []*Node
	links     []link
	iface     []ifaceSocket
	active    *Node
	refreshes int
}

var _ host.Graph = (*Graph)(nil)

// Name returns the node group name.
func (g *Graph) Name() string { return g.name }

// Nodes returns the nodes in creation order.
func (g *Graph) Nodes() []host.Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]host.Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n
	}
	return out
}

// Node returns the node with the given name, or nil.
func (g *Graph) Node(name string) *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range g.nodes {
		if n.name == name {
			return n
		}
	}
	return nil
}

// NewNode creates a node of a catalog type.
func (g *Graph) NewNode(nodeType string) (host.Node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, err := g.newNodeLocked(nodeType)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (g *Graph) newNodeLocked(nodeType string) (*Node, error) {
	def, ok := g.host.cat.Lookup(nodeType)
	pseudo := nodeType == descriptor.TypeGroupInput || nodeType == descriptor.TypeGroupOutput
	if !ok && !pseudo {
		return nil, fmt.Errorf("%w: %q", host.ErrUnknownNodeType, nodeType)
	}

	label := nodeType
	switch {
	case ok && def.Label != "":
		label = def.Label
	case nodeType == descriptor.TypeGroupInput:
		label = "Group Input"
	case nodeType == descriptor.TypeGroupOutput:
		label = "Group Output"
	}

	n := &Node{
		graph: g,
		name:  uniqueName(label, g.nodeNameTakenLocked),
		typ:   nodeType,
		props: map[string]any{},
		def:   def,
	}
	if ok {
		for _, s := range def.Inputs {
			n.inputs = append(n.inputs, newSocket(n, s.Name, s.Type, false, len(n.inputs), s.Default))
		}
		for _, s := range def.Outputs {
			n.outputs = append(n.outputs, newSocket(n, s.Name, s.Type, true, len(n.outputs), s.Default))
		}
		for _, p := range def.Properties {
			n.props[p.Name] = cloneValue(p.Default)
		}
	}
	if pseudo {
		for _, s := range g.iface {
			n.addInterfaceSocket(s)
		}
	}

	g.nodes = append(g.nodes, n)
	return n, nil
}

func (g *Graph) nodeNameTakenLocked(name string) bool {
	for _, n := range g.nodes {
		if n.name == name {
			return true
		}
	}
	return false
}

// EnsureInterfaceSocket adds a socket to the group interface unless one with
// the same direction and name exists. Existing pseudo-nodes gain the socket.
func (g *Graph) EnsureInterfaceSocket(dir host.Direction, name, socketType string) error {
	if !catalog.KnownSocketType(socketType) {
		return fmt.Errorf("%w: unknown socket type %q", host.ErrTypeMismatch, socketType)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, s := range g.iface {
		if s.dir == dir && s.name == name {
			return nil
		}
	}
	s := ifaceSocket{dir: dir, name: name, typ: socketType}
	g.iface = append(g.iface, s)
	for _, n := range g.nodes {
		n.addInterfaceSocket(s)
	}
	return nil
}

// Link connects an output socket to an input socket of this graph. An
// existing link into the same input is replaced.
func (g *Graph) Link(from, to host.Socket) error {
	out, ok := from.(*Socket)
	if !ok {
		return errors.New("link: source socket does not belong to this host")
	}
	in, ok := to.(*Socket)
	if !ok {
		return errors.New("link: destination socket does not belong to this host")
	}
	if out.node.graph != g || in.node.graph != g {
		return errors.New("link: sockets belong to another node group")
	}
	if !out.output || in.output {
		return fmt.Errorf("link: %s.%s -> %s.%s must connect an output to an input",
			out.node.name, out.name, in.node.name, in.name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	kept := g.links[:0]
	for _, l := range g.links {
		if l.to != in {
			kept = append(kept, l)
		}
	}
	g.links = append(kept, link{from: out, to: in})
	return nil
}

// SetActiveOutput marks a group output node as the active output.
func (g *Graph) SetActiveOutput(hn host.Node) error {
	n, ok := hn.(*Node)
	if !ok || n.graph != g {
		return errors.New("active output: node does not belong to this node group")
	}
	if n.typ != descriptor.TypeGroupOutput {
		return fmt.Errorf("active output: %s is a %s, not a group output", n.name, n.typ)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, other := range g.nodes {
		if other.typ == descriptor.TypeGroupOutput {
			other.props["is_active_output"] = other == n
		}
	}
	g.active = n
	return nil
}

// NotifyConsumersChanged records a modifier refresh.
func (g *Graph) NotifyConsumersChanged() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refreshes++
	return nil
}

// Refreshes returns how often NotifyConsumersChanged was called.
func (g *Graph) Refreshes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refreshes
}

// LinkCount returns the number of links.
func (g *Graph) LinkCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.links)
}

// ActiveOutput returns the active group output node, or nil.
func (g *Graph) ActiveOutput() *Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// linkedLocked reports whether s is an endpoint of any link.
func (g *Graph) linkedLocked(s *Socket) bool {
	for _, l := range g.links {
		if l.from == s || l.to == s {
			return true
		}
	}
	return false
}
