// Package memory implements the host capability interface over plain Go
// values, driven by a node catalog.
//
// The model mirrors a 3D application closely enough to exercise the
// materializer: one scene object carries one "NODES" modifier named
// "GeometryNodes"; creating a node group attaches it to that modifier and
// removes the group it replaces; node names are made unique host-style
// ("Transform", "Transform.001"); a link into an input that is already
// linked replaces the old link.
//
// Nothing is evaluated. A [Graph] can be exported as a graph.Snapshot for
// inspection, diagrams and tests.
//
// All types are safe for concurrent use, but a host is meant to serve one
// materialization: the HTTP server and the pipeline create a fresh host per
// request.
package memory

import (
	"fmt"
	"sync"

	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/host"
)

// Defaults of the modelled scene.
const (
	DefaultObject = "Cube"
	ModifierName  = "GeometryNodes"
	ModifierType  = "NODES"
)

// Positions of the pseudo-nodes created by CreateNodeGroup.
var (
	precreatedInputLocation  = [2]float64{-300, 0}
	precreatedOutputLocation = [2]float64{300, 0}
)

// Option configures a Host.
type Option func(*Host)

// WithObject names the scene object carrying the modifier.
func WithObject(name string) Option {
	return func(h *Host) { h.object = name }
}

// WithPrecreatedPseudoNodes controls whether CreateNodeGroup adds group input
// and output nodes and a Geometry interface, as hosts with automatic
// interface setup do. Enabled by default.
func WithPrecreatedPseudoNodes(enabled bool) Option {
	return func(h *Host) { h.precreate = enabled }
}

// WithRejectGroups makes CreateNodeGroup fail with err.
func WithRejectGroups(err error) Option {
	return func(h *Host) { h.reject = err }
}

// Host is an in-memory host holding one object with one geometry nodes modifier.
type Host struct {
	mu        sync.Mutex
	cat       *catalog.Catalog
	object    string
	precreate bool
	reject    error

	groups   []*Graph // all node groups in the document
	modifier *Graph   // group attached to the modifier
}

var _ host.Host = (*Host)(nil)

// NewHost creates a host whose node types come from cat. A nil catalog uses
// catalog.Default.
func NewHost(cat *catalog.Catalog, opts ...Option) *Host {
	if cat == nil {
		cat = catalog.Default()
	}
	h := &Host{cat: cat, object: DefaultObject, precreate: true}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateNodeGroup creates a node group, attaches it to the modifier and
// removes the group previously attached.
func (h *Host) CreateNodeGroup(name string) (host.Graph, error) {
	if h.reject != nil {
		return nil, h.reject
	}
	if name == "" {
		return nil, fmt.Errorf("node group name is empty")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if old := h.modifier; old != nil {
		h.removeGroupLocked(old)
	}

	g := &Graph{
		host:   h,
		name:   uniqueName(name, h.groupNameTakenLocked),
		object: h.object,
	}
	if h.precreate {
		g.iface = append(g.iface,
			ifaceSocket{dir: host.In, name: descriptor.GeometrySocket, typ: catalog.SocketGeometry},
			ifaceSocket{dir: host.Out, name: descriptor.GeometrySocket, typ: catalog.SocketGeometry},
		)
		in, err := g.newNodeLocked(descriptor.TypeGroupInput)
		if err != nil {
			return nil, err
		}
		in.x, in.y = precreatedInputLocation[0], precreatedInputLocation[1]
		out, err := g.newNodeLocked(descriptor.TypeGroupOutput)
		if err != nil {
			return nil, err
		}
		out.x, out.y = precreatedOutputLocation[0], precreatedOutputLocation[1]
	}

	h.groups = append(h.groups, g)
	h.modifier = g
	return g, nil
}

func (h *Host) removeGroupLocked(g *Graph) {
	for i, other := range h.groups {
		if other == g {
			h.groups = append(h.groups[:i], h.groups[i+1:]...)
			return
		}
	}
}

func (h *Host) groupNameTakenLocked(name string) bool {
	for _, g := range h.groups {
		if g.name == name {
			return true
		}
	}
	return false
}

// Object returns the name of the scene object.
func (h *Host) Object() string { return h.object }

// Catalog returns the catalog nodes are built from.
func (h *Host) Catalog() *catalog.Catalog { return h.cat }

// Active returns the group attached to the modifier, or nil.
func (h *Host) Active() *Graph {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.modifier
}

// GroupNames returns the names of all node groups in the document.
func (h *Host) GroupNames() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, len(h.groups))
	for i, g := range h.groups {
		names[i] = g.name
	}
	return names
}

// uniqueName returns base, or base with the first free ".NNN" suffix.
func uniqueName(base string, taken func(string) bool) string {
	if !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s.%03d", base, i)
		if !taken(name) {
			return name
		}
	}
}
