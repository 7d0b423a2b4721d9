package descriptor

import (
	"fmt"

	errs "github.com/matzehuels/geonodes/pkg/errors"
)

// Reason discriminates why a descriptor was rejected.
type Reason string

// Validation failure reasons, in the order the checks run.
const (
	ReasonNotMapping     Reason = "not_mapping"
	ReasonMissingNodes   Reason = "missing_nodes"
	ReasonNodesNotList   Reason = "nodes_not_list"
	ReasonMissingLinks   Reason = "missing_links"
	ReasonLinksNotList   Reason = "links_not_list"
	ReasonNodeNotMapping Reason = "node_not_mapping"
	ReasonNodeNoType     Reason = "node_missing_type"
	ReasonNodeNoName     Reason = "node_missing_name"
	ReasonLinkNotMapping Reason = "link_not_mapping"
	ReasonLinkMissingKey Reason = "link_missing_key"

	// ReasonDuplicateNodeID is only reported by ValidateStrict.
	ReasonDuplicateNodeID Reason = "duplicate_node_id"
)

// LinkKeys are the keys every link must carry.
var LinkKeys = []string{"from_node", "from_socket", "to_node", "to_socket"}

// ValidationError describes the first check a descriptor failed.
type ValidationError struct {
	Reason Reason
	Index  int    // element index within nodes or links; -1 for document-level reasons
	Key    string // offending key or identity, when there is one
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid descriptor: %s", e.Reason)
	switch {
	case e.Index >= 0 && e.Key != "":
		msg += fmt.Sprintf(" (index %d, %q)", e.Index, e.Key)
	case e.Index >= 0:
		msg += fmt.Sprintf(" (index %d)", e.Index)
	case e.Key != "":
		msg += fmt.Sprintf(" (%q)", e.Key)
	}
	return msg
}

// ErrorCode classifies the failure for errors.GetCode.
func (e *ValidationError) ErrorCode() errs.Code {
	if e.Reason == ReasonDuplicateNodeID {
		return errs.ErrCodeDuplicateNodeID
	}
	return errs.ErrCodeInvalidSchema
}

func fail(reason Reason, index int, key string) *ValidationError {
	return &ValidationError{Reason: reason, Index: index, Key: key}
}

// Valid reports whether raw has the minimal shape of a descriptor.
// It accepts and rejects exactly the documents Validate does.
func Valid(raw any) bool {
	return Validate(raw) == nil
}

// Validate checks that raw, a value produced by decoding JSON into an any,
// has the minimal shape of a descriptor. Checks run in order and the first
// failure is returned:
//
//  1. raw is a JSON object
//  2. "nodes" is present and is an array
//  3. "links" is present and is an array
//  4. every node is an object with both "type" and "name"
//  5. every link is an object with from_node, from_socket, to_node and to_socket
//
// Validate has no side effects.
func Validate(raw any) error {
	doc, ok := raw.(map[string]any)
	if !ok {
		return fail(ReasonNotMapping, -1, "")
	}

	nodesRaw, ok := doc["nodes"]
	if !ok {
		return fail(ReasonMissingNodes, -1, "nodes")
	}
	nodes, ok := nodesRaw.([]any)
	if !ok {
		return fail(ReasonNodesNotList, -1, "nodes")
	}

	linksRaw, ok := doc["links"]
	if !ok {
		return fail(ReasonMissingLinks, -1, "links")
	}
	links, ok := linksRaw.([]any)
	if !ok {
		return fail(ReasonLinksNotList, -1, "links")
	}

	for i, n := range nodes {
		node, ok := n.(map[string]any)
		if !ok {
			return fail(ReasonNodeNotMapping, i, "")
		}
		if _, ok := node["type"]; !ok {
			return fail(ReasonNodeNoType, i, "type")
		}
		if _, ok := node["name"]; !ok {
			return fail(ReasonNodeNoName, i, "name")
		}
	}

	for i, l := range links {
		link, ok := l.(map[string]any)
		if !ok {
			return fail(ReasonLinkNotMapping, i, "")
		}
		for _, key := range LinkKeys {
			if _, ok := link[key]; !ok {
				return fail(ReasonLinkMissingKey, i, key)
			}
		}
	}

	return nil
}

// ValidateStrict runs Validate and then rejects descriptors in which two nodes
// share an identity. The identity of a node is its "id", or its "name" when the
// id is absent, matching NodeSpec.Key.
func ValidateStrict(raw any) error {
	if err := Validate(raw); err != nil {
		return err
	}

	nodes := raw.(map[string]any)["nodes"].([]any)
	seen := make(map[string]int, len(nodes))
	for i, n := range nodes {
		key := rawKey(n.(map[string]any))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			return fail(ReasonDuplicateNodeID, i, key)
		}
		seen[key] = i
	}
	return nil
}

// rawKey mirrors NodeSpec.Key on an undecoded node.
func rawKey(node map[string]any) string {
	if id, ok := node["id"].(string); ok && id != "" {
		return id
	}
	name, _ := node["name"].(string)
	return name
}
