// Package pipeline provides the load, apply and render pipeline shared by
// the CLI and the HTTP API.
//
// By centralizing this logic, both entry points validate descriptors the same
// way, build graphs into the same host and hit the same cache.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: read a descriptor from a file, raw bytes or a preset and validate it
//  2. Apply: materialize the descriptor into a fresh in-memory host and take
//     a snapshot of the resulting graph
//  3. Render: export the snapshot as JSON, Graphviz DOT or SVG
//
// Each stage can be run independently or as part of the complete pipeline.
// Every Apply gets a fresh host, so runs never see each other's graphs.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	out, err := runner.Execute(ctx, pipeline.Options{
//	    Preset:  "translate",
//	    Formats: []string{"svg"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := out.Artifacts["svg"]
//
// Run individual stages:
//
//	d, err := runner.Load(ctx, opts)
//	out, err := runner.Apply(ctx, d, opts)
//	artifacts, hit, err := runner.Render(ctx, out, opts)
package pipeline

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/graph"
	"github.com/matzehuels/geonodes/pkg/materialize"
	"github.com/matzehuels/geonodes/pkg/presets"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultFormats are rendered when no format is requested.
var DefaultFormats = []string{graph.FormatSVG}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	graph.FormatJSON: true,
	graph.FormatDOT:  true,
	graph.FormatSVG:  true,
}

// Source labels for descriptors that do not come from a file.
const (
	SourceInline = "inline"
	sourcePreset = "preset:"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// Exactly one of File, Data and Preset selects the descriptor.
type Options struct {
	// Load options
	File            string `json:"file,omitempty"`
	Data            []byte `json:"-"` // raw descriptor JSON (request body, stdin)
	Preset          string `json:"preset,omitempty"`
	Target          string `json:"target,omitempty"`
	CustomAttribute string `json:"attribute,omitempty"`
	Strict          bool   `json:"strict,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"` // bypass cached artifacts

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks the descriptor source and formats and
// applies defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that exactly one descriptor source is set.
func (o *Options) ValidateForLoad() error {
	sources := 0
	for _, set := range []bool{o.File != "", o.Data != nil, o.Preset != ""} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return errs.New(errs.ErrCodeInvalidInput, "a descriptor file or a preset is required")
	case sources > 1:
		return errs.New(errs.ErrCodeInvalidInput, "file, data and preset are mutually exclusive")
	}

	if o.File != "" {
		if err := errs.ValidateDescriptorPath(o.File); err != nil {
			return err
		}
	}
	if o.Preset == "" && (o.Target != "" || o.CustomAttribute != "") {
		return errs.New(errs.ErrCodeInvalidInput, "target and attribute only apply to presets")
	}
	if o.Preset != "" {
		t, err := presets.ParseTarget(o.Target)
		if err != nil {
			return err
		}
		o.Target = string(t)
	}
	return nil
}

// ValidateForRender applies the default formats and rejects unknown ones.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	for i, f := range o.Formats {
		o.Formats[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return ValidateFormats(o.Formats)
}

// Source describes where the descriptor comes from, for logs and hooks.
func (o *Options) Source() string {
	switch {
	case o.File != "":
		return o.File
	case o.Preset != "":
		return sourcePreset + o.Preset
	}
	return SourceInline
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errs.New(errs.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, dot, svg)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Outcome - Pipeline Results
// =============================================================================

// Outcome contains the outputs of a pipeline run.
type Outcome struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Descriptor is the loaded descriptor.
	Descriptor *descriptor.Descriptor `json:"-"`

	// DescriptorHash is the content hash of the normalized descriptor.
	DescriptorHash string `json:"descriptor_hash"`

	// Result is the materializer's report.
	Result materialize.Result `json:"result"`

	// Snapshot is the built graph.
	Snapshot graph.Snapshot `json:"graph"`

	// Artifacts contains rendered outputs keyed by format (Execute only).
	Artifacts map[string][]byte `json:"-"`

	// Stats contains timing information.
	Stats Stats `json:"-"`

	// RenderHit reports whether every artifact came from the cache.
	RenderHit bool `json:"-"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	LinkCount  int
	LoadTime   time.Duration
	ApplyTime  time.Duration
	RenderTime time.Duration
}
