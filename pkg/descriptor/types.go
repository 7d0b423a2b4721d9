package descriptor

import (
	"encoding/json"
	"fmt"
)

// Reserved identifiers shared by descriptors and the materializer.
const (
	// InputNodeID is the sentinel node id of the graph input pseudo-node.
	InputNodeID = "input"
	// OutputNodeID is the sentinel node id of the graph output pseudo-node.
	OutputNodeID = "output"

	// GeometrySocket is the socket name carried by both pseudo-nodes.
	GeometrySocket = "Geometry"

	// TypeGroupInput is the node type of the graph input pseudo-node.
	TypeGroupInput = "NodeGroupInput"
	// TypeGroupOutput is the node type of the graph output pseudo-node.
	TypeGroupOutput = "NodeGroupOutput"

	// DefaultGraphName names the node group when a descriptor has no name.
	DefaultGraphName = "GeometryNodes"
)

// Descriptor is one desired node graph.
type Descriptor struct {
	Name  string     `json:"name,omitempty"`
	Nodes []NodeSpec `json:"nodes"`
	Links []LinkSpec `json:"links"`

	// Issues lists the elements the decoder dropped or trimmed because a field
	// had the wrong JSON type. It is empty for descriptors built in code.
	Issues []Issue `json:"-"`
}

// GraphName returns the descriptor name, or DefaultGraphName when empty.
func (d *Descriptor) GraphName() string {
	if d.Name != "" {
		return d.Name
	}
	return DefaultGraphName
}

// NodeSpec is one node to instantiate.
type NodeSpec struct {
	ID         string         `json:"id,omitempty"`
	Name       string         `json:"name,omitempty"`
	Type       string         `json:"type"`
	Location   Location       `json:"location"`
	Inputs     map[string]any `json:"inputs,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Key returns the identity links use to refer to this node: the id, or the
// name when no id was given.
func (n *NodeSpec) Key() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Name
}

// IsPseudo reports whether the node names one of the boundary pseudo-node kinds.
// Pseudo-nodes are provided by the host and never instantiated from a descriptor.
func (n *NodeSpec) IsPseudo() bool {
	return n.Type == TypeGroupInput || n.Type == TypeGroupOutput
}

// LinkSpec is one directed connection between an output socket and an input socket.
type LinkSpec struct {
	FromNode   string `json:"from_node"`
	FromSocket string `json:"from_socket"`
	ToNode     string `json:"to_node"`
	ToSocket   string `json:"to_socket"`
}

// String formats the link as "from.socket -> to.socket".
func (l LinkSpec) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.FromNode, l.FromSocket, l.ToNode, l.ToSocket)
}

// Location is a node layout position. It is purely cosmetic.
type Location struct {
	X, Y float64
}

// MarshalJSON encodes the location as a two-element array.
func (l Location) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{l.X, l.Y})
}

// UnmarshalJSON decodes a location from an array of up to two numbers.
// Locations are never validated: anything that is not a number decodes as zero.
func (l *Location) UnmarshalJSON(data []byte) error {
	*l = Location{}
	var xy []any
	if err := json.Unmarshal(data, &xy); err != nil {
		return nil
	}
	if len(xy) > 0 {
		l.X, _ = xy[0].(float64)
	}
	if len(xy) > 1 {
		l.Y, _ = xy[1].(float64)
	}
	return nil
}

// Element names the part of a descriptor an Issue refers to.
type Element string

// Descriptor elements.
const (
	ElementDescriptor Element = "descriptor"
	ElementNode       Element = "node"
	ElementLink       Element = "link"
)

// Issue is a field that passed validation but could not be decoded into its
// typed form. When Dropped is set the whole element was left out of the
// descriptor; otherwise only the field was ignored.
type Issue struct {
	Element Element
	Index   int    // element index within nodes or links; -1 for the descriptor itself
	Key     string // offending field, when known
	Dropped bool
	Err     error
}

// Error implements the error interface.
func (i Issue) Error() string {
	at := string(i.Element)
	if i.Index >= 0 {
		at = fmt.Sprintf("%s %d", i.Element, i.Index)
	}
	if i.Key != "" {
		at += fmt.Sprintf(" field %q", i.Key)
	}
	action := "ignored"
	if i.Dropped {
		action = "dropped"
	}
	return fmt.Sprintf("%s %s: %v", at, action, i.Err)
}

// Unwrap returns the decoder error.
func (i Issue) Unwrap() error { return i.Err }
