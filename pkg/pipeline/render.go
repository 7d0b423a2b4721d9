package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/geonodes/pkg/graph"
	"github.com/matzehuels/geonodes/pkg/render/nodelink"
)

// IsDiagramFormat reports whether format is produced by the diagram renderer.
func IsDiagramFormat(format string) bool {
	for _, f := range graph.DiagramFormats {
		if f == format {
			return true
		}
	}
	return false
}

// RenderArtifact renders one format of a snapshot.
func RenderArtifact(ctx context.Context, s graph.Snapshot, format string, detailed bool) ([]byte, error) {
	switch format {
	case graph.FormatJSON:
		return graph.Marshal(s)
	case graph.FormatDOT:
		return []byte(nodelink.ToDOT(s, nodelink.Options{Detailed: detailed})), nil
	case graph.FormatSVG:
		return nodelink.RenderSVG(ctx, nodelink.ToDOT(s, nodelink.Options{Detailed: detailed}))
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}
