// Package presets provides the built-in transform descriptors.
//
// Each preset is a literal descriptor: translate, rotate and scale wrap a
// Transform node, mirror asks for a Mirror node (which current hosts do not
// provide, so the graph degrades to a pass-through), and array instances the
// input geometry on the points of a mesh line.
//
// Translate, rotate and scale can target an attribute instead of the whole
// geometry. The transform then runs on a captured attribute and the result is
// stored back under the target's attribute name:
//
//	Group Input -> Capture Attribute -> Transform -> Store Named Attribute -> Group Output
package presets

import (
	"fmt"
	"strings"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	errs "github.com/matzehuels/geonodes/pkg/errors"
)

// Preset names.
const (
	Translate = "translate"
	Rotate    = "rotate"
	Scale     = "scale"
	Mirror    = "mirror"
	Array     = "array"
)

var names = []string{Translate, Rotate, Scale, Mirror, Array}

var descriptions = map[string]string{
	Translate: "move geometry by (1, 0, 0)",
	Rotate:    "rotate geometry 45 degrees around Z",
	Scale:     "scale geometry by 2",
	Mirror:    "mirror geometry on X (needs a host Mirror node)",
	Array:     "instance geometry on 5 points along a line",
}

// Names returns the preset names in display order.
func Names() []string {
	return append([]string(nil), names...)
}

// Describe returns a one-line description of a preset, or "" if unknown.
func Describe(name string) string {
	return descriptions[name]
}

// Target selects what a transform preset acts on.
type Target string

// Transform targets.
const (
	TargetGeometry Target = "GEOMETRY"
	TargetPosition Target = "POSITION"
	TargetNormal   Target = "NORMAL"
	TargetUV       Target = "UV"
	TargetColor    Target = "COLOR"
	TargetCustom   Target = "CUSTOM"
)

var targetAttributes = map[Target]string{
	TargetPosition: "position",
	TargetNormal:   "normal",
	TargetUV:       "UVMap",
	TargetColor:    "Color",
}

// Targets returns all targets, GEOMETRY first.
func Targets() []Target {
	return []Target{TargetGeometry, TargetPosition, TargetNormal, TargetUV, TargetColor, TargetCustom}
}

// ParseTarget parses a target case-insensitively. The empty string is GEOMETRY.
func ParseTarget(s string) (Target, error) {
	if s == "" {
		return TargetGeometry, nil
	}
	t := Target(strings.ToUpper(s))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "unknown target %q (want one of %s)", s, joinTargets())
}

func joinTargets() string {
	var parts []string
	for _, t := range Targets() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ", ")
}

// AttributeName returns the attribute a target reads and writes. custom is
// used for TargetCustom and must be a valid attribute name.
func AttributeName(t Target, custom string) (string, error) {
	switch t {
	case TargetGeometry:
		return "", nil
	case TargetCustom:
		if custom == "" {
			return "", errs.New(errs.ErrCodeInvalidInput, "target CUSTOM needs an attribute name")
		}
		if err := errs.ValidateAttributeName(custom); err != nil {
			return "", err
		}
		return custom, nil
	}
	if name, ok := targetAttributes[t]; ok {
		return name, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "unknown target %q", t)
}

// Build returns the descriptor of a preset. target and custom only affect
// translate, rotate and scale.
func Build(name string, target Target, custom string) (*descriptor.Descriptor, error) {
	if target == "" {
		target = TargetGeometry
	}
	d := &descriptor.Descriptor{Name: "GN_" + name}

	switch name {
	case Translate, Rotate, Scale:
		attr, err := AttributeName(target, custom)
		if err != nil {
			return nil, err
		}
		buildTransform(d, name, attr)
	case Mirror:
		buildMirror(d)
	case Array:
		buildArray(d)
	default:
		return nil, errs.New(errs.ErrCodePresetNotFound, "unknown preset %q (want one of %s)", name, strings.Join(names, ", "))
	}
	return d, nil
}

// =============================================================================
// Preset Graphs
// =============================================================================

const (
	groupInput  = "GROUP_INPUT"
	groupOutput = "GROUP_OUTPUT"
	geometry    = descriptor.GeometrySocket
)

func link(from, fromSocket, to, toSocket string) descriptor.LinkSpec {
	return descriptor.LinkSpec{FromNode: from, FromSocket: fromSocket, ToNode: to, ToSocket: toSocket}
}

func vec(xs ...float64) []any {
	out := make([]any, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

func transformInputs(name string) map[string]any {
	switch name {
	case Translate:
		return map[string]any{"Translation": vec(1, 0, 0)}
	case Rotate:
		return map[string]any{"Rotation": vec(0, 0, 0.785398)}
	default:
		return map[string]any{"Scale": vec(2, 2, 2)}
	}
}

func buildTransform(d *descriptor.Descriptor, name, attr string) {
	xf := fmt.Sprintf("Transform_%s", name)
	d.Nodes = append(d.Nodes, descriptor.NodeSpec{
		Name:   xf,
		Type:   "GeometryNodeTransform",
		Inputs: transformInputs(name),
	})

	if attr == "" {
		d.Links = []descriptor.LinkSpec{
			link(groupInput, geometry, xf, geometry),
			link(xf, geometry, groupOutput, geometry),
		}
		return
	}

	d.Nodes = append(d.Nodes,
		descriptor.NodeSpec{
			Name:     "CaptureAttribute",
			Type:     "GeometryNodeCaptureAttribute",
			Location: descriptor.Location{X: -200},
			Properties: map[string]any{
				"data_type":      "FLOAT_VECTOR",
				"attribute_name": attr,
			},
		},
		descriptor.NodeSpec{
			Name:       "StoreAttribute",
			Type:       "GeometryNodeStoreNamedAttribute",
			Location:   descriptor.Location{X: 200},
			Inputs:     map[string]any{"Name": attr},
			Properties: map[string]any{"data_type": "FLOAT_VECTOR"},
		},
	)
	d.Links = []descriptor.LinkSpec{
		link(groupInput, geometry, "CaptureAttribute", geometry),
		link("CaptureAttribute", "Attribute", xf, geometry),
		link(xf, geometry, "StoreAttribute", "Value"),
		link("CaptureAttribute", geometry, "StoreAttribute", geometry),
		link("StoreAttribute", geometry, groupOutput, geometry),
	}
}

func buildMirror(d *descriptor.Descriptor) {
	d.Nodes = []descriptor.NodeSpec{{
		Name: "Mirror",
		Type: "GeometryNodeMirror",
	}}
	d.Links = []descriptor.LinkSpec{
		link(groupInput, geometry, "Mirror", geometry),
		link("Mirror", geometry, groupOutput, geometry),
	}
}

func buildArray(d *descriptor.Descriptor) {
	d.Nodes = []descriptor.NodeSpec{
		{
			Name: "Array",
			Type: "GeometryNodeInstanceOnPoints",
		},
		{
			Name:       "Points",
			Type:       "GeometryNodeMeshLine",
			Location:   descriptor.Location{X: -200, Y: -100},
			Inputs:     map[string]any{"Count": 5.0},
			Properties: map[string]any{"count_mode": "TOTAL", "count": 5.0},
		},
	}
	d.Links = []descriptor.LinkSpec{
		link(groupInput, geometry, "Array", "Instance"),
		link("Points", "Mesh", "Array", "Points"),
		link("Array", "Instances", groupOutput, geometry),
	}
}
