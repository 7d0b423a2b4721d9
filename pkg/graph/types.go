package graph

import (
	"cmp"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Output formats shared by the pipeline, the CLI and the HTTP API.
const (
	FormatJSON = "json" // snapshot JSON
	FormatDOT  = "dot"  // Graphviz source
	FormatSVG  = "svg"  // Graphviz-rendered diagram
)

// DiagramFormats lists the formats the diagram renderer produces.
var DiagramFormats = []string{FormatDOT, FormatSVG}

// Interface directions.
const (
	DirectionInput  = "INPUT"
	DirectionOutput = "OUTPUT"
)

// =============================================================================
// Snapshot - Built Node Graph Serialization
// =============================================================================

// Snapshot is the canonical serialization format for a built node graph.
// It records what the host holds after materialization: nodes with their
// sockets and current default values, the links between them and the
// graph interface.
type Snapshot struct {
	Name      string            `json:"name"`
	Object    string            `json:"object,omitempty"`   // scene object carrying the modifier
	Modifier  string            `json:"modifier,omitempty"` // consumer the group is attached to
	Active    string            `json:"active_output,omitempty"`
	Interface []InterfaceSocket `json:"interface,omitempty"`
	Nodes     []Node            `json:"nodes"`
	Links     []Link            `json:"links"`
}

// InterfaceSocket is one socket exposed by the node group.
type InterfaceSocket struct {
	Direction string `json:"direction"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

// =============================================================================
// Node and Socket
// =============================================================================

// Node is one node in a snapshot.
type Node struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Label      string         `json:"label,omitempty"`
	Location   [2]float64     `json:"location"`
	Inputs     []Socket       `json:"inputs,omitempty"`
	Outputs    []Socket       `json:"outputs,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the name.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Name
}

// Socket is one socket of a snapshot node.
type Socket struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
	Linked  bool   `json:"linked,omitempty"`
}

// =============================================================================
// Link - Directed Socket Connection
// =============================================================================

// Link connects output socket FromIndex of FromNode to input socket ToIndex
// of ToNode. Indexes disambiguate sockets that share a name.
type Link struct {
	FromNode   string `json:"from_node"`
	FromSocket string `json:"from_socket"`
	FromIndex  int    `json:"from_index"`
	ToNode     string `json:"to_node"`
	ToSocket   string `json:"to_socket"`
	ToIndex    int    `json:"to_index"`
	Valid      bool   `json:"valid"` // socket types are compatible
}

// =============================================================================
// Queries
// =============================================================================

// Node returns the node with the given name.
func (s Snapshot) Node(name string) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// NodesOfType returns the nodes with the given type.
func (s Snapshot) NodesOfType(nodeType string) []*Node {
	var out []*Node
	for i := range s.Nodes {
		if s.Nodes[i].Type == nodeType {
			out = append(out, &s.Nodes[i])
		}
	}
	return out
}

// LinksFrom returns the links leaving the named node.
func (s Snapshot) LinksFrom(name string) []Link {
	var out []Link
	for _, l := range s.Links {
		if l.FromNode == name {
			out = append(out, l)
		}
	}
	return out
}

// Sort orders nodes by name and links by destination then source, for
// deterministic output.
func (s *Snapshot) Sort() {
	slices.SortFunc(s.Nodes, func(a, b Node) int { return cmp.Compare(a.Name, b.Name) })
	slices.SortFunc(s.Links, func(a, b Link) int {
		return cmp.Or(
			cmp.Compare(a.ToNode, b.ToNode),
			cmp.Compare(a.ToIndex, b.ToIndex),
			cmp.Compare(a.FromNode, b.FromNode),
			cmp.Compare(a.FromIndex, b.FromIndex),
		)
	})
}
