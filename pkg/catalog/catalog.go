// Package catalog describes the node types a host knows how to build.
//
// A catalog is a TOML document listing node types together with their input
// and output sockets and their node properties:
//
//	[[node]]
//	type = "GeometryNodeTransform"
//	label = "Transform"
//
//	[[node.input]]
//	name = "Translation"
//	type = "VECTOR"
//	default = [0.0, 0.0, 0.0]
//
//	[[node.output]]
//	name = "Geometry"
//	type = "GEOMETRY"
//
//	[[node.property]]
//	name = "mode"
//	default = "COMPONENTS"
//
// [Default] returns the catalog embedded in the binary. [Load] reads a user
// catalog from disk, typically configured through the "catalog" config key.
//
// The in-memory host (package memory) builds its nodes from a catalog, and
// [Catalog.Hash] takes part in diagram cache keys so a catalog change
// invalidates previously rendered artifacts.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/geonodes/pkg/cache"
	errs "github.com/matzehuels/geonodes/pkg/errors"
)

//go:embed default.toml
var defaultTOML []byte

// SocketDef declares one socket of a node type.
type SocketDef struct {
	Name    string `toml:"name" json:"name"`
	Type    string `toml:"type" json:"type"`
	Default any    `toml:"default" json:"default,omitempty"`
}

// PropertyDef declares one node attribute that does not flow through a socket.
type PropertyDef struct {
	Name    string `toml:"name" json:"name"`
	Default any    `toml:"default" json:"default,omitempty"`
}

// NodeDef declares one node type.
type NodeDef struct {
	Type       string        `toml:"type" json:"type"`
	Label      string        `toml:"label" json:"label,omitempty"`
	Inputs     []SocketDef   `toml:"input" json:"inputs,omitempty"`
	Outputs    []SocketDef   `toml:"output" json:"outputs,omitempty"`
	Properties []PropertyDef `toml:"property" json:"properties,omitempty"`
}

// Property returns the property definition with the given name.
func (n *NodeDef) Property(name string) (PropertyDef, bool) {
	for _, p := range n.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertyDef{}, false
}

// Catalog is an immutable set of node type definitions.
// It is safe for concurrent use.
type Catalog struct {
	nodes map[string]*NodeDef
	order []string
	hash  string
}

type catalogFile struct {
	Node []NodeDef `toml:"node"`
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog. It panics if the embedded document is
// malformed, which can only happen at development time.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultTOML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded catalog: %v", defaultErr))
	}
	return defaultCat
}

// Load reads a catalog file. A missing file is reported with code FILE_NOT_FOUND.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "catalog %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and checks a TOML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode catalog")
	}

	c := &Catalog{
		nodes: make(map[string]*NodeDef, len(f.Node)),
		hash:  cache.Hash(data),
	}
	for i := range f.Node {
		def := &f.Node[i]
		if def.Type == "" {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "node %d has no type", i)
		}
		if _, dup := c.nodes[def.Type]; dup {
			return nil, errs.New(errs.ErrCodeInvalidFormat, "node type %q declared twice", def.Type)
		}
		if err := normalizeSockets(def.Type, def.Inputs); err != nil {
			return nil, err
		}
		if err := normalizeSockets(def.Type, def.Outputs); err != nil {
			return nil, err
		}
		for j, p := range def.Properties {
			if p.Name == "" {
				return nil, errs.New(errs.ErrCodeInvalidFormat, "%s: property %d has no name", def.Type, j)
			}
			def.Properties[j].Default = normalizeProperty(p.Default)
		}
		c.nodes[def.Type] = def
		c.order = append(c.order, def.Type)
	}
	return c, nil
}

// normalizeSockets checks socket types and converts TOML defaults to the
// canonical Go representation returned by Coerce.
func normalizeSockets(nodeType string, sockets []SocketDef) error {
	for i := range sockets {
		s := &sockets[i]
		if s.Name == "" {
			return errs.New(errs.ErrCodeInvalidFormat, "%s: socket %d has no name", nodeType, i)
		}
		if !KnownSocketType(s.Type) {
			return errs.New(errs.ErrCodeInvalidFormat, "%s: socket %q has unknown type %q", nodeType, s.Name, s.Type)
		}
		if s.Default == nil {
			s.Default = Zero(s.Type)
			continue
		}
		v, err := Coerce(s.Type, s.Default)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidFormat, err, "%s: socket %q default", nodeType, s.Name)
		}
		s.Default = v
	}
	return nil
}

// normalizeProperty maps TOML integers to float64 so property values compare
// the same way JSON-decoded values do.
func normalizeProperty(v any) any {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeProperty(e)
		}
		return out
	}
	return v
}

// Lookup returns the definition of a node type.
func (c *Catalog) Lookup(nodeType string) (*NodeDef, bool) {
	def, ok := c.nodes[nodeType]
	return def, ok
}

// Types returns the node types in declaration order.
func (c *Catalog) Types() []string {
	return append([]string(nil), c.order...)
}

// Sorted returns the node definitions sorted by type.
func (c *Catalog) Sorted() []*NodeDef {
	defs := make([]*NodeDef, 0, len(c.nodes))
	for _, def := range c.nodes {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}

// Len returns the number of node types.
func (c *Catalog) Len() int { return len(c.nodes) }

// Hash returns the SHA-256 of the source document.
func (c *Catalog) Hash() string { return c.hash }
