package materialize

import (
	"errors"
	"fmt"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
)

// Stage names the pipeline step that produced a diagnostic.
type Stage string

// Pipeline stages, in execution order.
const (
	StageGroup     Stage = "group"
	StageEndpoints Stage = "endpoints"
	StageNodes     Stage = "nodes"
	StageLinks     Stage = "links"
	StageFallback  Stage = "fallback"
	StageFinalize  Stage = "finalize"
)

// Diagnostic records one item that was skipped or only partially applied.
type Diagnostic struct {
	Stage   Stage                `json:"stage"`
	Code    errs.Code            `json:"code"`
	NodeID  string               `json:"node_id,omitempty"`
	Link    *descriptor.LinkSpec `json:"link,omitempty"`
	Message string               `json:"message"`
	Err     error                `json:"-"`
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var subject string
	switch {
	case d.Link != nil:
		subject = " [" + d.Link.String() + "]"
	case d.NodeID != "":
		subject = fmt.Sprintf(" [node %q]", d.NodeID)
	}
	msg := fmt.Sprintf("%s: %s%s: %s", d.Code, d.Stage, subject, d.Message)
	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}
	return msg
}

// Unwrap returns the host error behind the diagnostic, if any.
func (d Diagnostic) Unwrap() error { return d.Err }

// ErrorCode classifies the diagnostic for errors.GetCode.
func (d Diagnostic) ErrorCode() errs.Code { return d.Code }

// Result is the outcome of one materialization.
type Result struct {
	// OK is false only when the host refused to create the node group.
	OK bool `json:"ok"`

	// Graph is the name of the node group that was built.
	Graph string `json:"graph,omitempty"`

	NodesCreated int `json:"nodes_created"`
	LinksCreated int `json:"links_created"`

	// FallbackLinked is set when no descriptor link could be created and the
	// input pseudo-node was wired straight to the output pseudo-node.
	FallbackLinked bool `json:"fallback_linked,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Err folds the diagnostics into one error. It returns nil for a clean run.
func (r Result) Err() error {
	if len(r.Diagnostics) == 0 {
		return nil
	}
	list := make([]error, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		list[i] = d
	}
	return errors.Join(list...)
}

// Skipped counts the diagnostics with the given code, or all diagnostics when
// code is empty.
func (r Result) Skipped(code errs.Code) int {
	if code == "" {
		return len(r.Diagnostics)
	}
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}
