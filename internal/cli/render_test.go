package cli

import (
	"testing"

	"github.com/matzehuels/geonodes/pkg/pipeline"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "dot", []string{"dot"}},
		{"multiple formats", "svg,dot,json", []string{"svg", "dot", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestParseFormatsDoesNotAliasDefaults(t *testing.T) {
	got := parseFormats("")
	got[0] = "dot"
	if pipeline.DefaultFormats[0] != "svg" {
		t.Error("parseFormats returned the shared default slice")
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		name      string
		output    string
		input     string
		graphName string
		want      string
	}{
		{"from input", "", "graphs/wave.json", "GN_wave", "graphs/wave"},
		{"from graph name", "", "", "GN_translate", "GN_translate"},
		{"output with format extension", "out/diagram.svg", "wave.json", "", "out/diagram"},
		{"output without extension", "out/diagram", "wave.json", "", "out/diagram"},
		{"output with other extension", "out/diagram.txt", "", "", "out/diagram.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.input, tt.graphName); got != tt.want {
				t.Errorf("basePath(%q, %q, %q) = %q, want %q", tt.output, tt.input, tt.graphName, got, tt.want)
			}
		})
	}
}
