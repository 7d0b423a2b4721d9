package materialize

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/geonodes/pkg/catalog"
	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/host"
	"github.com/matzehuels/geonodes/pkg/observability"
)

// Default positions of pseudo-nodes created during endpoint setup.
var (
	DefaultInputLocation  = descriptor.Location{X: -200, Y: 0}
	DefaultOutputLocation = descriptor.Location{X: 200, Y: 0}
)

// Options configures a Materializer.
type Options struct {
	// InputLocation and OutputLocation position pseudo-nodes the materializer
	// has to create. When both are zero the defaults are used.
	InputLocation  descriptor.Location
	OutputLocation descriptor.Location

	// GeometryType is the socket type of the Geometry interface sockets.
	// Defaults to "GEOMETRY".
	GeometryType string
}

// DefaultOptions returns the options New falls back to.
func DefaultOptions() Options {
	return Options{
		InputLocation:  DefaultInputLocation,
		OutputLocation: DefaultOutputLocation,
		GeometryType:   catalog.SocketGeometry,
	}
}

func (o *Options) setDefaults() {
	if o.InputLocation == (descriptor.Location{}) && o.OutputLocation == (descriptor.Location{}) {
		o.InputLocation, o.OutputLocation = DefaultInputLocation, DefaultOutputLocation
	}
	if o.GeometryType == "" {
		o.GeometryType = catalog.SocketGeometry
	}
}

// Materializer builds descriptors into host graphs.
// A Materializer holds no per-run state and may be shared between goroutines,
// as long as each run targets its own graph.
type Materializer struct {
	Options
	Logger *log.Logger
}

// New creates a Materializer. A nil logger discards all output.
func New(opts Options, logger *log.Logger) *Materializer {
	opts.setDefaults()
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Materializer{Options: opts, Logger: logger}
}

// Apply asks the host for a new node group named after the descriptor and
// materializes the descriptor into it.
//
// A host refusing the node group is the only fatal failure: Apply then
// returns a Result with OK false and an error with code HOST_PRECONDITION.
// Every other failure is reported as a Diagnostic.
func (m *Materializer) Apply(ctx context.Context, d *descriptor.Descriptor, h host.Host) (Result, error) {
	name := d.GraphName()
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnMaterializeStart(ctx, name, len(d.Nodes))

	g, err := h.CreateNodeGroup(name)
	if err != nil {
		err = errs.Wrap(errs.ErrCodeHostPrecondition, err, "create node group %q", name)
		m.logger(ctx).Error("host refused node group", "graph", name, "err", err)
		hooks.OnMaterializeComplete(ctx, name, 0, 0, time.Since(start), err)
		return Result{OK: false, Graph: name}, err
	}

	res := m.materialize(ctx, d, g)
	hooks.OnMaterializeComplete(ctx, name, res.LinksCreated, len(res.Diagnostics), time.Since(start), nil)
	return res, nil
}

// Materialize builds d into an existing graph. It always runs to completion
// and always returns a Result with OK set: item-level failures are collected
// as diagnostics, and mutations already applied to g are left in place.
//
// ctx is not checked for cancellation. It carries observability hooks and,
// optionally, a logger attached with log.WithContext that takes precedence
// over m.Logger.
func (m *Materializer) Materialize(ctx context.Context, d *descriptor.Descriptor, g host.Graph) Result {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnMaterializeStart(ctx, g.Name(), len(d.Nodes))

	res := m.materialize(ctx, d, g)
	hooks.OnMaterializeComplete(ctx, g.Name(), res.LinksCreated, len(res.Diagnostics), time.Since(start), nil)
	return res
}

func (m *Materializer) materialize(ctx context.Context, d *descriptor.Descriptor, g host.Graph) Result {
	r := &run{
		m:      m,
		log:    m.logger(ctx).With("graph", g.Name()),
		g:      g,
		nodes:  make(map[string]host.Node, len(d.Nodes)+2),
		result: Result{OK: true, Graph: g.Name()},
	}

	r.setupEndpoints()
	r.reportIssues(d.Issues, descriptor.ElementDescriptor, descriptor.ElementNode)
	r.instantiateNodes(d.Nodes)
	r.reportIssues(d.Issues, descriptor.ElementLink)
	r.createLinks(d.Links)
	r.fallback()
	r.finalize()

	r.log.Info("materialized graph",
		"nodes", r.result.NodesCreated,
		"links", r.result.LinksCreated,
		"skipped", len(r.result.Diagnostics),
		"fallback", r.result.FallbackLinked)
	return r.result
}

func (m *Materializer) logger(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(log.ContextKey).(*log.Logger); ok && l != nil {
		return l
	}
	return m.Logger
}

// run is the state of one materialization.
type run struct {
	m      *Materializer
	log    *log.Logger
	g      host.Graph
	nodes  map[string]host.Node // node id -> live node, including the sentinel ids
	input  host.Node
	output host.Node
	result Result
}

// report records a diagnostic and logs it. Duplicate ids are expected in
// lenient mode and only logged at debug level.
func (r *run) report(d Diagnostic) {
	r.result.Diagnostics = append(r.result.Diagnostics, d)
	kv := []any{"stage", d.Stage, "code", d.Code}
	if d.NodeID != "" {
		kv = append(kv, "node", d.NodeID)
	}
	if d.Link != nil {
		kv = append(kv, "link", d.Link.String())
	}
	if d.Err != nil {
		kv = append(kv, "err", d.Err)
	}
	if d.Code == errs.ErrCodeDuplicateNodeID {
		r.log.Debug(d.Message, kv...)
		return
	}
	r.log.Warn(d.Message, kv...)
}

// reportIssues turns the decoder issues for the given elements into
// diagnostics. Dropped links are unresolved endpoints; everything else is an
// invalid value.
func (r *run) reportIssues(issues []descriptor.Issue, elems ...descriptor.Element) {
	for _, is := range issues {
		if !slices.Contains(elems, is.Element) {
			continue
		}
		d := Diagnostic{Stage: StageNodes, Code: errs.ErrCodeInvalidValue, Err: is.Err}
		switch is.Element {
		case descriptor.ElementDescriptor:
			d.Stage = StageGroup
			d.Message = fmt.Sprintf("descriptor field %q ignored", is.Key)
		case descriptor.ElementNode:
			d.NodeID = fmt.Sprintf("nodes[%d]", is.Index)
			d.Message = fmt.Sprintf("field %q ignored", is.Key)
			if is.Dropped {
				d.Message = fmt.Sprintf("node dropped, field %q", is.Key)
			}
		case descriptor.ElementLink:
			d.Stage = StageLinks
			d.Code = errs.ErrCodeUnresolvedEndpoint
			d.Message = fmt.Sprintf("links[%d] dropped, field %q", is.Index, is.Key)
		}
		r.report(d)
	}
}

// =============================================================================
// Step 1: Endpoint Setup
// =============================================================================

// setupEndpoints reuses or creates the group input and output pseudo-nodes,
// makes sure the interface exposes Geometry on both sides and seeds the id
// map with the sentinel ids.
func (r *run) setupEndpoints() {
	for _, n := range r.g.Nodes() {
		switch n.Type() {
		case descriptor.TypeGroupInput:
			if r.input == nil {
				r.input = n
			}
		case descriptor.TypeGroupOutput:
			if r.output == nil {
				r.output = n
			}
		}
	}

	for _, dir := range []host.Direction{host.In, host.Out} {
		if err := r.g.EnsureInterfaceSocket(dir, descriptor.GeometrySocket, r.m.GeometryType); err != nil {
			r.report(Diagnostic{
				Stage:   StageEndpoints,
				Code:    errs.ErrCodeInternal,
				Message: "could not expose Geometry " + dir.String() + " on the group interface",
				Err:     err,
			})
		}
	}

	if r.input == nil {
		r.input = r.createPseudoNode(descriptor.TypeGroupInput, r.m.InputLocation)
	} else {
		r.log.Debug("reusing pseudo-node", "type", descriptor.TypeGroupInput, "name", r.input.Name())
	}
	if r.output == nil {
		r.output = r.createPseudoNode(descriptor.TypeGroupOutput, r.m.OutputLocation)
	} else {
		r.log.Debug("reusing pseudo-node", "type", descriptor.TypeGroupOutput, "name", r.output.Name())
	}

	if r.input != nil {
		r.nodes[descriptor.InputNodeID] = r.input
	}
	if r.output != nil {
		r.nodes[descriptor.OutputNodeID] = r.output
	}
}

func (r *run) createPseudoNode(nodeType string, at descriptor.Location) host.Node {
	n, err := r.g.NewNode(nodeType)
	if err != nil {
		r.report(Diagnostic{
			Stage:   StageEndpoints,
			Code:    errs.ErrCodeUnknownNodeType,
			Message: "could not create pseudo-node " + nodeType,
			Err:     err,
		})
		return nil
	}
	n.SetLocation(at.X, at.Y)
	r.log.Debug("created pseudo-node", "type", nodeType, "name", n.Name())
	return n
}

// =============================================================================
// Step 4: Fallback
// =============================================================================

// fallback wires the group input straight to the group output when no
// descriptor link could be created.
func (r *run) fallback() {
	if r.result.LinksCreated > 0 || r.input == nil || r.output == nil {
		return
	}
	outs, ins := r.input.Outputs(), r.output.Inputs()
	if len(outs) == 0 || len(ins) == 0 {
		r.log.Debug("no sockets for fallback link", "outputs", len(outs), "inputs", len(ins))
		return
	}
	if err := r.g.Link(outs[0], ins[0]); err != nil {
		r.report(Diagnostic{
			Stage:   StageFallback,
			Code:    errs.ErrCodeUnresolvedEndpoint,
			Message: "host refused fallback link",
			Err:     err,
		})
		return
	}
	r.result.LinksCreated++
	r.result.FallbackLinked = true
	r.log.Debug("linked input to output directly", "from", outs[0].Name(), "to", ins[0].Name())
}

// =============================================================================
// Step 5: Finalization
// =============================================================================

func (r *run) finalize() {
	if r.output != nil {
		if err := r.g.SetActiveOutput(r.output); err != nil {
			r.report(Diagnostic{
				Stage:   StageFinalize,
				Code:    errs.ErrCodeInternal,
				Message: "could not mark active output",
				Err:     err,
			})
		}
	}
	if err := r.g.NotifyConsumersChanged(); err != nil {
		r.report(Diagnostic{
			Stage:   StageFinalize,
			Code:    errs.ErrCodeInternal,
			Message: "could not refresh graph consumers",
			Err:     err,
		})
	}
}
