package descriptor

import (
	"encoding/json"
	"testing"

	errs "github.com/matzehuels/geonodes/pkg/errors"
)

func mustRaw(t *testing.T, s string) any {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		t.Fatalf("unmarshal %s: %v", s, err)
	}
	return raw
}

func TestValidRejectsNonMappings(t *testing.T) {
	for _, raw := range []any{[]any{}, nil, "x", 42.0, true} {
		if Valid(raw) {
			t.Errorf("Valid(%#v) = true, want false", raw)
		}
		err := Validate(raw)
		ve, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("Validate(%#v) error = %T, want *ValidationError", raw, err)
		}
		if ve.Reason != ReasonNotMapping {
			t.Errorf("Validate(%#v) reason = %s, want %s", raw, ve.Reason, ReasonNotMapping)
		}
	}
}

func TestValidAcceptsMinimalShape(t *testing.T) {
	raw := mustRaw(t, `{"nodes": [{"type":"A","name":"n1"}], "links": []}`)
	if !Valid(raw) {
		t.Fatalf("Valid() = false, want true: %v", Validate(raw))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason Reason
		index  int
		key    string
	}{
		{"empty lists", `{"nodes": [], "links": []}`, "", 0, ""},
		{"extra keys allowed", `{"name": "g", "nodes": [], "links": [], "meta": 1}`, "", 0, ""},
		{"node with id and name", `{"nodes": [{"id": "a", "type": "T", "name": "a"}], "links": []}`, "", 0, ""},
		{"null name still present", `{"nodes": [{"type": "T", "name": null}], "links": []}`, "", 0, ""},

		{"missing nodes", `{"links": []}`, ReasonMissingNodes, -1, "nodes"},
		{"nodes not list", `{"nodes": {}, "links": []}`, ReasonNodesNotList, -1, "nodes"},
		{"missing links", `{"nodes": []}`, ReasonMissingLinks, -1, "links"},
		{"links not list", `{"nodes": [], "links": "x"}`, ReasonLinksNotList, -1, "links"},
		{"node not mapping", `{"nodes": [1], "links": []}`, ReasonNodeNotMapping, 0, ""},
		{"node missing type", `{"nodes": [{"name": "a"}], "links": []}`, ReasonNodeNoType, 0, "type"},
		{"node with id but no name", `{"nodes": [{"id": "a", "type": "T"}], "links": []}`, ReasonNodeNoName, 0, "name"},
		{"second node bad", `{"nodes": [{"type": "T", "name": "a"}, {"type": "T"}], "links": []}`, ReasonNodeNoName, 1, "name"},
		{"link not mapping", `{"nodes": [], "links": [[]]}`, ReasonLinkNotMapping, 0, ""},
		{"nodes checked before links", `{"nodes": [{}], "links": [1]}`, ReasonNodeNoType, 0, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mustRaw(t, tt.input))
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Reason != tt.reason || ve.Index != tt.index || ve.Key != tt.key {
				t.Errorf("Validate() = {%s %d %q}, want {%s %d %q}",
					ve.Reason, ve.Index, ve.Key, tt.reason, tt.index, tt.key)
			}
			if !errs.Is(err, errs.ErrCodeInvalidSchema) {
				t.Errorf("code = %s, want %s", errs.GetCode(err), errs.ErrCodeInvalidSchema)
			}
		})
	}
}

func TestValidateRejectsLinkMissingAnyKey(t *testing.T) {
	for _, missing := range LinkKeys {
		t.Run(missing, func(t *testing.T) {
			link := map[string]any{
				"from_node": "a", "from_socket": "Geometry",
				"to_node": "b", "to_socket": "Geometry",
			}
			delete(link, missing)
			raw := map[string]any{
				"nodes": []any{map[string]any{"type": "T", "name": "a"}},
				"links": []any{link},
			}
			if Valid(raw) {
				t.Fatal("Valid() = true, want false")
			}
			ve := Validate(raw).(*ValidationError)
			if ve.Reason != ReasonLinkMissingKey || ve.Key != missing {
				t.Errorf("Validate() = {%s %q}, want {%s %q}", ve.Reason, ve.Key, ReasonLinkMissingKey, missing)
			}
		})
	}

	// Invalid links are rejected even when no node is valid either way.
	raw := mustRaw(t, `{"nodes": [], "links": [{"from_node": "a", "to_node": "b", "to_socket": "c"}]}`)
	if Valid(raw) {
		t.Error("Valid() = true for link without from_socket")
	}
}

func TestValidateStrict(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		key     string
	}{
		{"unique ids", `{"nodes": [{"id": "a", "type": "T", "name": "x"}, {"id": "b", "type": "T", "name": "x"}], "links": []}`, false, ""},
		{"unique names without ids", `{"nodes": [{"type": "T", "name": "a"}, {"type": "T", "name": "b"}], "links": []}`, false, ""},
		{"duplicate ids", `{"nodes": [{"id": "a", "type": "T", "name": "x"}, {"id": "a", "type": "T", "name": "y"}], "links": []}`, true, "a"},
		{"id collides with name", `{"nodes": [{"id": "a", "type": "T", "name": "x"}, {"type": "T", "name": "a"}], "links": []}`, true, "a"},
		{"shape errors first", `{"nodes": [{"id": "a", "type": "T"}], "links": []}`, true, "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStrict(mustRaw(t, tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStrict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			ve := err.(*ValidationError)
			if ve.Key != tt.key {
				t.Errorf("key = %q, want %q", ve.Key, tt.key)
			}
			if ve.Reason == ReasonDuplicateNodeID && !errs.Is(err, errs.ErrCodeDuplicateNodeID) {
				t.Errorf("code = %s, want %s", errs.GetCode(err), errs.ErrCodeDuplicateNodeID)
			}
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{fail(ReasonNotMapping, -1, ""), "invalid descriptor: not_mapping"},
		{fail(ReasonMissingNodes, -1, "nodes"), `invalid descriptor: missing_nodes ("nodes")`},
		{fail(ReasonNodeNotMapping, 2, ""), "invalid descriptor: node_not_mapping (index 2)"},
		{fail(ReasonLinkMissingKey, 0, "to_socket"), `invalid descriptor: link_missing_key (index 0, "to_socket")`},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
