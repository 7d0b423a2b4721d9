package graph

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Name:   "GN_translate",
		Object: "Cube",
		Active: "Group Output",
		Nodes: []Node{
			{Name: "Transform", Type: "GeometryNodeTransform", Location: [2]float64{0, 0},
				Inputs: []Socket{{Name: "Translation", Type: "VECTOR", Default: []any{1.0, 0.0, 0.0}}}},
			{Name: "Group Output", Type: "NodeGroupOutput", Location: [2]float64{200, 0}},
			{Name: "Group Input", Type: "NodeGroupInput", Location: [2]float64{-200, 0}},
		},
		Links: []Link{
			{FromNode: "Transform", FromSocket: "Geometry", ToNode: "Group Output", ToSocket: "Geometry", Valid: true},
			{FromNode: "Group Input", FromSocket: "Geometry", ToNode: "Transform", ToSocket: "Geometry", Valid: true},
		},
	}
}

func TestMarshalSortsWithoutMutating(t *testing.T) {
	s := sampleSnapshot()

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if s.Nodes[0].Name != "Transform" {
		t.Error("Marshal() reordered the caller's nodes")
	}

	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	var names []string
	for _, n := range back.Nodes {
		names = append(names, n.Name)
	}
	if got := strings.Join(names, ","); got != "Group Input,Group Output,Transform" {
		t.Errorf("node order = %s", got)
	}
	if back.Links[0].ToNode != "Group Output" {
		t.Errorf("first link = %+v, want link into Group Output", back.Links[0])
	}
	if back.Active != "Group Output" || back.Object != "Cube" {
		t.Errorf("header = %+v", back)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a, _ := Marshal(sampleSnapshot())
	s := sampleSnapshot()
	s.Nodes[0], s.Nodes[2] = s.Nodes[2], s.Nodes[0]
	s.Links[0], s.Links[1] = s.Links[1], s.Links[0]
	b, _ := Marshal(s)
	if !bytes.Equal(a, b) {
		t.Errorf("Marshal() depends on input order:\n%s\n%s", a, b)
	}
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(Snapshot{Name: "empty"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"nodes": []`) || !strings.Contains(string(data), `"links": []`) {
		t.Errorf("empty lists not written:\n%s", data)
	}
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := WriteFile(sampleSnapshot(), path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	s, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(s.Nodes) != 3 || len(s.Links) != 2 {
		t.Errorf("got %d nodes, %d links", len(s.Nodes), len(s.Links))
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) error = nil")
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "nested", "wave.json")
	if err := WriteFile(sampleSnapshot(), path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := ReadFile(path); err != nil {
		t.Errorf("ReadFile() error: %v", err)
	}
}

func TestWriteFileOverDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := WriteFile(sampleSnapshot(), dir); err == nil {
		t.Error("WriteFile(directory) error = nil")
	}
}

func TestQueriesOnReturnedSnapshot(t *testing.T) {
	if _, ok := sampleSnapshot().Node("Transform"); !ok {
		t.Error("Node() on a returned snapshot found nothing")
	}
	if got := sampleSnapshot().LinksFrom("Group Input"); len(got) != 1 {
		t.Errorf("LinksFrom() on a returned snapshot = %+v", got)
	}
	if got := sampleSnapshot().NodesOfType("GeometryNodeTransform"); len(got) != 1 {
		t.Errorf("NodesOfType() on a returned snapshot = %d nodes", len(got))
	}

	s := sampleSnapshot()
	n, _ := s.Node("Transform")
	n.Label = "moved"
	if s.Nodes[0].Label != "moved" {
		t.Error("Node() did not return a pointer into the snapshot")
	}
}

func TestQueries(t *testing.T) {
	s := sampleSnapshot()

	n, ok := s.Node("Transform")
	if !ok || n.Type != "GeometryNodeTransform" {
		t.Errorf("Node(Transform) = %+v, %v", n, ok)
	}
	if _, ok := s.Node("missing"); ok {
		t.Error("Node(missing) found")
	}
	if got := len(s.NodesOfType("NodeGroupInput")); got != 1 {
		t.Errorf("NodesOfType() = %d, want 1", got)
	}
	if got := s.LinksFrom("Group Input"); len(got) != 1 || got[0].ToNode != "Transform" {
		t.Errorf("LinksFrom() = %+v", got)
	}
	if (&Node{Name: "a"}).DisplayLabel() != "a" || (&Node{Name: "a", Label: "A"}).DisplayLabel() != "A" {
		t.Error("DisplayLabel() mismatch")
	}
}
