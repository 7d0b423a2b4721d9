package materialize

import (
	"fmt"
	"strconv"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/host"
)

// =============================================================================
// Step 3: Link Resolution
// =============================================================================

// createLinks resolves and creates every link in descriptor order. A link
// whose endpoints cannot be resolved is skipped.
func (r *run) createLinks(specs []descriptor.LinkSpec) {
	for i := range specs {
		spec := specs[i]
		l := r.normalize(spec)

		unresolved := func(msg string, err error) {
			r.report(Diagnostic{
				Stage:   StageLinks,
				Code:    errs.ErrCodeUnresolvedEndpoint,
				Link:    &spec,
				Message: msg,
				Err:     err,
			})
		}

		from, ok := r.nodes[l.FromNode]
		if !ok {
			unresolved(fmt.Sprintf("source node %q not found", l.FromNode), nil)
			continue
		}
		to, ok := r.nodes[l.ToNode]
		if !ok {
			unresolved(fmt.Sprintf("destination node %q not found", l.ToNode), nil)
			continue
		}

		out := resolveSocket(from.Outputs(), l.FromSocket)
		if out == nil {
			unresolved(fmt.Sprintf("output socket %q not found on %s", l.FromSocket, from.Name()), nil)
			continue
		}
		in := resolveSocket(to.Inputs(), l.ToSocket)
		if in == nil {
			unresolved(fmt.Sprintf("input socket %q not found on %s", l.ToSocket, to.Name()), nil)
			continue
		}

		if err := r.g.Link(out, in); err != nil {
			unresolved("host refused link", err)
			continue
		}
		r.result.LinksCreated++
		r.log.Debug("created link", "link", l.String(), "from", from.Name()+"."+out.Name(), "to", to.Name()+"."+in.Name())
	}
}

// normalize rewrites references to the implicit endpoints. A source that is
// the "input" sentinel, or an unknown node referenced through the Geometry
// socket, becomes ("input", "Geometry"); destinations map to "output" the
// same way.
func (r *run) normalize(l descriptor.LinkSpec) descriptor.LinkSpec {
	if _, known := r.nodes[l.FromNode]; l.FromNode == descriptor.InputNodeID ||
		(!known && l.FromSocket == descriptor.GeometrySocket) {
		l.FromNode, l.FromSocket = descriptor.InputNodeID, descriptor.GeometrySocket
	}
	if _, known := r.nodes[l.ToNode]; l.ToNode == descriptor.OutputNodeID ||
		(!known && l.ToSocket == descriptor.GeometrySocket) {
		l.ToNode, l.ToSocket = descriptor.OutputNodeID, descriptor.GeometrySocket
	}
	return l
}

// resolveSocket finds a socket by exact name, falling back to a positional
// index when ref is a decimal digit string.
func resolveSocket(sockets []host.Socket, ref string) host.Socket {
	if s := socketByName(sockets, ref); s != nil {
		return s
	}
	if !isDigits(ref) {
		return nil
	}
	idx, err := strconv.Atoi(ref)
	if err != nil || idx >= len(sockets) {
		return nil
	}
	return sockets[idx]
}

func socketByName(sockets []host.Socket, name string) host.Socket {
	for _, s := range sockets {
		if s.Name() == name {
			return s
		}
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
