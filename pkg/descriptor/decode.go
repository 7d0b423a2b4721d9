package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	errs "github.com/matzehuels/geonodes/pkg/errors"
)

// DecodeOptions controls descriptor decoding.
type DecodeOptions struct {
	// Strict applies ValidateStrict instead of Validate.
	Strict bool
}

// =============================================================================
// Descriptor Decoding API
// =============================================================================

// Decode parses JSON bytes, validates the generic value and returns the typed
// descriptor. Validation failures are returned as *ValidationError.
//
// Once the shape checks pass, nodes and links are decoded one at a time. A
// field with the wrong JSON type never fails the whole descriptor: it is
// recorded in Descriptor.Issues and the element is trimmed or dropped.
func Decode(data []byte) (*Descriptor, error) {
	return DecodeWith(data, DecodeOptions{})
}

// DecodeWith is Decode with explicit options.
func DecodeWith(data []byte, opts DecodeOptions) (*Descriptor, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode descriptor JSON")
	}

	validate := Validate
	if opts.Strict {
		validate = ValidateStrict
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var doc struct {
		Name  json.RawMessage   `json:"name"`
		Nodes []json.RawMessage `json:"nodes"`
		Links []json.RawMessage `json:"links"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode descriptor JSON")
	}

	d := &Descriptor{
		Nodes: make([]NodeSpec, 0, len(doc.Nodes)),
		Links: make([]LinkSpec, 0, len(doc.Links)),
	}
	if len(doc.Name) > 0 {
		if err := json.Unmarshal(doc.Name, &d.Name); err != nil {
			d.Issues = append(d.Issues, Issue{Element: ElementDescriptor, Index: -1, Key: "name", Err: err})
		}
	}
	for i, raw := range doc.Nodes {
		n, issues, ok := decodeNode(i, raw)
		d.Issues = append(d.Issues, issues...)
		if ok {
			d.Nodes = append(d.Nodes, n)
		}
	}
	for i, raw := range doc.Links {
		var l LinkSpec
		if err := json.Unmarshal(raw, &l); err != nil {
			d.Issues = append(d.Issues, Issue{Element: ElementLink, Index: i, Key: fieldOf(err), Dropped: true, Err: err})
			continue
		}
		d.Links = append(d.Links, l)
	}
	return d, nil
}

// decodeNode decodes one validated node object field by field. A node whose
// type cannot be decoded is dropped; any other mistyped field is treated as
// absent.
func decodeNode(index int, raw json.RawMessage) (NodeSpec, []Issue, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return NodeSpec{}, []Issue{{Element: ElementNode, Index: index, Dropped: true, Err: err}}, false
	}

	var (
		n      NodeSpec
		issues []Issue
	)
	field := func(key string, dst any) bool {
		v, ok := fields[key]
		if !ok {
			return true
		}
		if err := json.Unmarshal(v, dst); err != nil {
			issues = append(issues, Issue{Element: ElementNode, Index: index, Key: key, Err: err})
			return false
		}
		return true
	}

	if !field("type", &n.Type) {
		issues[len(issues)-1].Dropped = true
		return NodeSpec{}, issues, false
	}
	if !field("id", &n.ID) {
		n.ID = ""
	}
	if !field("name", &n.Name) {
		n.Name = ""
	}
	if !field("inputs", &n.Inputs) {
		n.Inputs = nil
	}
	if !field("properties", &n.Properties) {
		n.Properties = nil
	}
	if v, ok := fields["location"]; ok {
		_ = n.Location.UnmarshalJSON(v)
	}
	return n, issues, true
}

// fieldOf extracts the offending field name from a decoder error.
func fieldOf(err error) string {
	var terr *json.UnmarshalTypeError
	if errors.As(err, &terr) {
		return terr.Field
	}
	return ""
}

// Read decodes a descriptor from an io.Reader.
// Use ReadFile for files or pass bytes.NewReader for in-memory data.
func Read(r io.Reader, opts DecodeOptions) (*Descriptor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}
	return DecodeWith(data, opts)
}

// ReadFile reads and decodes a descriptor file.
// A missing file is reported with code FILE_NOT_FOUND.
func ReadFile(path string, opts DecodeOptions) (*Descriptor, error) {
	if err := errs.ValidateDescriptorPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "descriptor %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return DecodeWith(data, opts)
}

// =============================================================================
// Descriptor Encoding API
// =============================================================================

// Marshal encodes a descriptor as indented JSON.
func Marshal(d *Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(d, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes a descriptor as indented JSON to an io.Writer.
// Nil node and link lists are written as empty arrays so the output always
// passes Validate.
func Write(d *Descriptor, w io.Writer) error {
	out := *d
	if out.Nodes == nil {
		out.Nodes = []NodeSpec{}
	}
	if out.Links == nil {
		out.Links = []LinkSpec{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
