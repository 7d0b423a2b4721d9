package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/geonodes/pkg/cache"
	errs "github.com/matzehuels/geonodes/pkg/errors"
	"github.com/matzehuels/geonodes/pkg/graph"
)

// memCache is an in-memory cache.Cache that counts operations.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

var _ cache.Cache = (*memCache)(nil)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

const passthrough = `{"name": "GN_pass", "nodes": [], "links": []}`

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"dot", false},
		{"json", false},
		{"png", true},
		{"invalid", true},
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestValidateForRenderDefaultsAndNormalizes(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != graph.FormatSVG {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}

	opts = Options{Formats: []string{" DOT", "Svg"}}
	if err := opts.ValidateForRender(); err != nil {
		t.Fatal(err)
	}
	if opts.Formats[0] != "dot" || opts.Formats[1] != "svg" {
		t.Errorf("Formats = %v, want [dot svg]", opts.Formats)
	}
}

func TestValidateForLoad(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errs.Code
	}{
		{"no source", Options{}, errs.ErrCodeInvalidInput},
		{"two sources", Options{File: "a.json", Preset: "scale"}, errs.ErrCodeInvalidInput},
		{"bad extension", Options{File: "graph.yaml"}, errs.ErrCodeInvalidPath},
		{"target without preset", Options{File: "a.json", Target: "UV"}, errs.ErrCodeInvalidInput},
		{"bad target", Options{Preset: "scale", Target: "sideways"}, errs.ErrCodeInvalidInput},
		{"file", Options{File: "a.json"}, ""},
		{"data", Options{Data: []byte(passthrough)}, ""},
		{"preset", Options{Preset: "rotate", Target: "normal"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateForLoad()
			if got := errs.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (err %v)", got, tt.code, err)
			}
		})
	}
}

func TestOptionsSource(t *testing.T) {
	if got := (&Options{File: "x.json"}).Source(); got != "x.json" {
		t.Errorf("Source() = %q", got)
	}
	if got := (&Options{Preset: "array"}).Source(); got != "preset:array" {
		t.Errorf("Source() = %q", got)
	}
	if got := (&Options{Data: []byte("{}")}).Source(); got != SourceInline {
		t.Errorf("Source() = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(passthrough), 0644); err != nil {
		t.Fatal(err)
	}

	d, err := quietRunner(nil).Load(context.Background(), Options{File: path})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if d.Name != "GN_pass" {
		t.Errorf("Name = %q", d.Name)
	}

	_, err = quietRunner(nil).Load(context.Background(), Options{File: filepath.Join(t.TempDir(), "missing.json")})
	if code := errs.GetCode(err); code != errs.ErrCodeFileNotFound {
		t.Errorf("missing file code = %q, want FILE_NOT_FOUND", code)
	}
}

func TestLoadStrict(t *testing.T) {
	dup := []byte(`{"nodes": [
		{"id": "a", "name": "a", "type": "GeometryNodeTransform"},
		{"id": "a", "name": "b", "type": "GeometryNodeTransform"}
	], "links": []}`)

	r := quietRunner(nil)
	if _, err := r.Load(context.Background(), Options{Data: dup}); err != nil {
		t.Errorf("lenient Load() error: %v", err)
	}
	_, err := r.Load(context.Background(), Options{Data: dup, Strict: true})
	if code := errs.GetCode(err); code != errs.ErrCodeDuplicateNodeID {
		t.Errorf("strict code = %q, want DUPLICATE_NODE_ID", code)
	}
}

func TestLoadPreset(t *testing.T) {
	d, err := quietRunner(nil).Load(context.Background(), Options{Preset: "translate", Target: "POSITION"})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if d.Name != "GN_translate" || len(d.Nodes) != 3 {
		t.Errorf("descriptor = %s with %d nodes", d.Name, len(d.Nodes))
	}

	_, err = quietRunner(nil).Load(context.Background(), Options{Preset: "explode"})
	if code := errs.GetCode(err); code != errs.ErrCodePresetNotFound {
		t.Errorf("unknown preset code = %q", code)
	}
}

func TestApply(t *testing.T) {
	r := quietRunner(nil)
	ctx := context.Background()
	d, err := r.Load(ctx, Options{Preset: "mirror"})
	if err != nil {
		t.Fatal(err)
	}

	out, err := r.Apply(ctx, d, Options{})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if out.RunID == "" || out.DescriptorHash == "" {
		t.Errorf("RunID %q, DescriptorHash %q", out.RunID, out.DescriptorHash)
	}
	if !out.Result.OK {
		t.Error("Result.OK = false")
	}
	if out.Result.Skipped(errs.ErrCodeUnknownNodeType) != 1 {
		t.Errorf("diagnostics = %v", out.Result.Diagnostics)
	}
	if out.Snapshot.Name != "GN_mirror" || out.Stats.LinkCount != 1 {
		t.Errorf("snapshot %s with %d links", out.Snapshot.Name, out.Stats.LinkCount)
	}

	again, err := r.Apply(ctx, d, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if again.RunID == out.RunID {
		t.Error("run ids should differ between runs")
	}
	if again.DescriptorHash != out.DescriptorHash {
		t.Error("descriptor hash should be stable")
	}
}

func TestExecuteCachesDiagrams(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	ctx := context.Background()
	opts := Options{Preset: "scale", Formats: []string{"json", "dot"}}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if first.RenderHit {
		t.Error("first run should miss")
	}
	if !strings.Contains(string(first.Artifacts["dot"]), "digraph") {
		t.Errorf("dot artifact = %q", first.Artifacts["dot"])
	}
	if _, err := graph.Unmarshal(first.Artifacts["json"]); err != nil {
		t.Errorf("json artifact: %v", err)
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1 (json is not cached)", c.sets)
	}

	// json is always rebuilt, so the run as a whole still reports a miss.
	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if second.RenderHit {
		t.Error("run with json should not report a full hit")
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d after second run, want 1", c.sets)
	}

	third, err := r.Execute(ctx, Options{Preset: "scale", Formats: []string{"dot"}})
	if err != nil {
		t.Fatal(err)
	}
	if !third.RenderHit {
		t.Error("dot-only run should be a full cache hit")
	}

	_, err = r.Execute(ctx, Options{Preset: "scale", Formats: []string{"dot"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if c.sets != 2 {
		t.Errorf("cache sets = %d after refresh, want 2", c.sets)
	}
}

func TestExecuteReportsProgress(t *testing.T) {
	r := quietRunner(nil)
	var got []string
	r.Progress = func(stage Stage, detail string) {
		got = append(got, string(stage)+" "+detail)
	}

	if _, err := r.Execute(context.Background(), Options{Preset: "scale", Formats: []string{"dot", "json"}}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	want := []string{"load preset:scale", "apply GN_scale", "render dot, json"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("progress = %q, want %q", got, want)
	}

	got = nil
	if _, err := r.Execute(context.Background(), Options{Preset: "explode", Formats: []string{"dot"}}); err == nil {
		t.Fatal("Execute(unknown preset) error = nil")
	}
	if len(got) != 1 || got[0] != "load preset:explode" {
		t.Errorf("progress after failed load = %q", got)
	}
}

func TestExecuteRejectsBadOptions(t *testing.T) {
	_, err := quietRunner(nil).Execute(context.Background(), Options{Preset: "scale", Formats: []string{"gif"}})
	if code := errs.GetCode(err); code != errs.ErrCodeInvalidInput {
		t.Errorf("code = %q, want INVALID_INPUT", code)
	}
}

func TestRenderArtifact(t *testing.T) {
	if _, err := RenderArtifact(context.Background(), graph.Snapshot{}, "gif", false); err == nil {
		t.Error("RenderArtifact(gif) error = nil")
	}
	data, err := RenderArtifact(context.Background(), graph.Snapshot{Name: "g"}, graph.FormatJSON, false)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name": "g"`) {
		t.Errorf("json = %s", data)
	}
	if IsDiagramFormat(graph.FormatJSON) || !IsDiagramFormat(graph.FormatSVG) {
		t.Error("IsDiagramFormat misclassifies formats")
	}
}

func TestExampleDescriptors(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "..", "examples", "descriptors", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no example descriptors found")
	}

	r := quietRunner(nil)
	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			out, err := r.Execute(context.Background(), Options{File: f, Strict: true, Formats: []string{graph.FormatDOT}})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if err := out.Result.Err(); err != nil {
				t.Errorf("diagnostics: %v", err)
			}
			if out.Result.FallbackLinked {
				t.Error("example fell back to a pass-through link")
			}
			if out.Result.LinksCreated != len(out.Descriptor.Links) {
				t.Errorf("LinksCreated = %d, want %d", out.Result.LinksCreated, len(out.Descriptor.Links))
			}
		})
	}
}
