package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/geonodes/pkg/descriptor"
	"github.com/matzehuels/geonodes/pkg/graph"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the default values of unlinked inputs and the node
	// properties to the labels. When false, only socket names are shown.
	Detailed bool
}

// ToDOT converts a graph snapshot to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
//
// Every node becomes a record with its inputs on the left and its outputs on
// the right; links connect the socket ports. Group input and output nodes are
// filled grey, the active output is drawn bold, and links between
// incompatible sockets are dashed red.
func ToDOT(s graph.Snapshot, opts Options) string {
	s.Nodes = slices.Clone(s.Nodes)
	s.Links = slices.Clone(s.Links)
	s.Sort()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quote(s.Name))
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=record, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range s.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed), n.Name == s.Active)
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.Name), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, l := range s.Links {
		fmt.Fprintf(&buf, "  %s:o%d -> %s:i%d", quote(l.FromNode), l.FromIndex, quote(l.ToNode), l.ToIndex)
		if !l.Valid {
			buf.WriteString(" [style=dashed, color=red]")
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// fmtLabel builds a record label: {inputs} | title | {outputs}.
func fmtLabel(n graph.Node, detailed bool) string {
	title := escape(n.DisplayLabel())
	if n.DisplayLabel() != n.Name {
		title += `\n` + escape(n.Name)
	}
	if detailed {
		for _, k := range slices.Sorted(maps.Keys(n.Properties)) {
			title += `\n` + escape(fmt.Sprintf("%s: %s", k, fmtValue(n.Properties[k])))
		}
	}

	ins := make([]string, len(n.Inputs))
	for i, sock := range n.Inputs {
		text := sock.Name
		if detailed && !sock.Linked && sock.Default != nil {
			text += " = " + fmtValue(sock.Default)
		}
		ins[i] = fmt.Sprintf("<i%d> %s", i, escape(text))
	}
	outs := make([]string, len(n.Outputs))
	for i, sock := range n.Outputs {
		outs[i] = fmt.Sprintf("<o%d> %s", i, escape(sock.Name))
	}

	parts := []string{title}
	if len(ins) > 0 {
		parts = append([]string{"{" + strings.Join(ins, "|") + "}"}, parts...)
	}
	if len(outs) > 0 {
		parts = append(parts, "{"+strings.Join(outs, "|")+"}")
	}
	return strings.Join(parts, " | ")
}

func fmtAttrs(n graph.Node, label string, active bool) []string {
	attrs := []string{"label=" + quote(label)}
	switch n.Type {
	case descriptor.TypeGroupInput, descriptor.TypeGroupOutput:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	if active {
		attrs = append(attrs, "penwidth=2.5")
	}
	return attrs
}

func fmtValue(v any) string {
	switch x := v.(type) {
	case []float64:
		parts := make([]string, len(x))
		for i, f := range x {
			parts[i] = strconv.FormatFloat(f, 'g', 6, 64)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case float64:
		return strconv.FormatFloat(x, 'g', 6, 64)
	case string:
		return strconv.Quote(x)
	}
	return fmt.Sprint(v)
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`,
	`{`, `\{`,
	`}`, `\}`,
	`|`, `\|`,
	`<`, `\<`,
	`>`, `\>`,
)

// escape protects record-label metacharacters.
func escape(s string) string {
	return recordEscaper.Replace(s)
}

// quote produces a DOT double-quoted string. Only the quote character needs
// escaping; backslashes are passed through for the record parser.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root tag so the diagram scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(root))
}
