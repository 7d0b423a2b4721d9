package materialize

import (
	"errors"
	"fmt"
	"sort"

	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/host"
)

// =============================================================================
// Step 2: Node Instantiation
// =============================================================================

// instantiateNodes creates every non-pseudo node in descriptor order. A node
// the host refuses is skipped; inputs and properties are applied best-effort.
func (r *run) instantiateNodes(specs []descriptor.NodeSpec) {
	for i := range specs {
		spec := &specs[i]
		key := spec.Key()

		if spec.IsPseudo() {
			r.log.Debug("skipping pseudo-node", "id", key, "type", spec.Type)
			continue
		}

		n, err := r.g.NewNode(spec.Type)
		if err != nil {
			code := errs.ErrCodeInternal
			if errors.Is(err, host.ErrUnknownNodeType) {
				code = errs.ErrCodeUnknownNodeType
			}
			r.report(Diagnostic{
				Stage:   StageNodes,
				Code:    code,
				NodeID:  key,
				Message: fmt.Sprintf("could not create node of type %q", spec.Type),
				Err:     err,
			})
			continue
		}
		r.result.NodesCreated++
		n.SetLocation(spec.Location.X, spec.Location.Y)
		r.log.Debug("created node", "id", key, "type", spec.Type, "name", n.Name())

		switch _, dup := r.nodes[key]; {
		case key == "":
			r.log.Debug("node has neither id nor name, links cannot reach it", "type", spec.Type)
		case dup:
			r.report(Diagnostic{
				Stage:   StageNodes,
				Code:    errs.ErrCodeDuplicateNodeID,
				NodeID:  key,
				Message: "duplicate node id, the later node wins",
			})
			r.nodes[key] = n
		default:
			r.nodes[key] = n
		}

		for _, name := range sortedKeys(spec.Inputs) {
			r.applyInput(key, n, name, spec.Inputs[name])
		}
		for _, name := range sortedKeys(spec.Properties) {
			r.applyProperty(key, n, name, spec.Properties[name])
		}
	}
}

// applyInput assigns one input value by socket name. Unknown sockets are
// ignored. Sequences are written component-wise into vector sockets and
// truncated to the socket's component count.
func (r *run) applyInput(key string, n host.Node, name string, value any) {
	sock := socketByName(n.Inputs(), name)
	if sock == nil {
		r.log.Debug("ignoring unknown input socket", "id", key, "socket", name)
		return
	}

	invalid := func(msg string, err error) {
		r.report(Diagnostic{
			Stage:   StageNodes,
			Code:    errs.ErrCodeInvalidValue,
			NodeID:  key,
			Message: fmt.Sprintf("input %q: %s", name, msg),
			Err:     err,
		})
	}

	seq, isSeq := asSequence(value)
	if !isSeq {
		if !sock.HasDefault() {
			r.log.Debug("ignoring value for socket without default", "id", key, "socket", name)
			return
		}
		if err := sock.SetDefault(value); err != nil {
			invalid("value rejected", err)
		}
		return
	}

	if len(seq) == 0 {
		r.log.Debug("ignoring empty sequence", "id", key, "socket", name)
		return
	}
	comps := sock.Components()
	if comps == 0 {
		invalid(fmt.Sprintf("sequence of %d values for non-vector socket of type %s", len(seq), sock.Type()), nil)
		return
	}
	if len(seq) > comps {
		r.log.Debug("truncating vector value", "id", key, "socket", name, "values", len(seq), "components", comps)
		seq = seq[:comps]
	}

	vals := make([]float64, len(seq))
	for i, e := range seq {
		f, ok := catalog.ToFloat(e)
		if !ok {
			invalid(fmt.Sprintf("element %d is %T, not a number", i, e), host.ErrTypeMismatch)
			return
		}
		vals[i] = f
	}
	for i, f := range vals {
		if err := sock.SetComponent(i, f); err != nil {
			invalid(fmt.Sprintf("component %d rejected", i), err)
			return
		}
	}
}

// applyProperty sets a node attribute. Attributes the node lacks are ignored.
func (r *run) applyProperty(key string, n host.Node, name string, value any) {
	err := n.SetProperty(name, value)
	switch {
	case err == nil:
	case errors.Is(err, host.ErrUnknownProperty):
		r.log.Debug("ignoring unknown property", "id", key, "property", name)
	default:
		r.report(Diagnostic{
			Stage:   StageNodes,
			Code:    errs.ErrCodeInvalidValue,
			NodeID:  key,
			Message: fmt.Sprintf("property %q: value rejected", name),
			Err:     err,
		})
	}
}

// asSequence reports whether v is a list value and returns its elements.
func asSequence(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}

// sortedKeys makes value assignment order deterministic.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
