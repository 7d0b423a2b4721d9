package memory

import (
	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/graph"
	"github.com/matzehuels/geonodes/pkg/host"
)

// Snapshot copies the graph into its serialization format.
func (g *Graph) Snapshot() graph.Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := graph.Snapshot{
		Name:     g.name,
		Object:   g.object,
		Modifier: ModifierName,
		Nodes:    make([]graph.Node, 0, len(g.nodes)),
		Links:    make([]graph.Link, 0, len(g.links)),
	}
	if g.active != nil {
		s.Active = g.active.name
	}
	for _, is := range g.iface {
		dir := graph.DirectionInput
		if is.dir == host.Out {
			dir = graph.DirectionOutput
		}
		s.Interface = append(s.Interface, graph.InterfaceSocket{Direction: dir, Name: is.name, Type: is.typ})
	}

	for _, n := range g.nodes {
		gn := graph.Node{
			Name:     n.name,
			Type:     n.typ,
			Label:    n.label,
			Location: [2]float64{n.x, n.y},
		}
		for _, sock := range n.inputs {
			gn.Inputs = append(gn.Inputs, g.snapshotSocketLocked(sock))
		}
		for _, sock := range n.outputs {
			gn.Outputs = append(gn.Outputs, g.snapshotSocketLocked(sock))
		}
		if len(n.props) > 0 {
			gn.Properties = make(map[string]any, len(n.props))
			for k, v := range n.props {
				gn.Properties[k] = cloneValue(v)
			}
		}
		s.Nodes = append(s.Nodes, gn)
	}

	for _, l := range g.links {
		s.Links = append(s.Links, graph.Link{
			FromNode:   l.from.node.name,
			FromSocket: l.from.name,
			FromIndex:  l.from.index,
			ToNode:     l.to.node.name,
			ToSocket:   l.to.name,
			ToIndex:    l.to.index,
			Valid:      compatible(l.from.typ, l.to.typ),
		})
	}
	return s
}

func (g *Graph) snapshotSocketLocked(s *Socket) graph.Socket {
	out := graph.Socket{Name: s.name, Type: s.typ, Linked: g.linkedLocked(s)}
	if !s.output && s.HasDefault() {
		out.Default = cloneValue(s.value)
	}
	return out
}

// compatible reports whether a link between the two socket types carries data.
// Field types convert implicitly; geometry only connects to geometry.
func compatible(from, to string) bool {
	return (from == catalog.SocketGeometry) == (to == catalog.SocketGeometry)
}
