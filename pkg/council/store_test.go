package council

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "council.json")
	store := NewFileStore(path)

	c := New("persisted", store)
	a := c.AddNode(NodeData{Model: "gpt-4o"})
	b := c.AddNode(NodeData{})
	c.AddEdge(a, b)
	c.Favourite(a)

	reopened := Open("ignored", NewFileStore(path))
	if reopened.Name() != "persisted" {
		t.Errorf("expected persisted name, got %q", reopened.Name())
	}
	if len(reopened.Nodes()) != 2 || len(reopened.Edges()) != 1 {
		t.Fatalf("snapshot lost shape: %d nodes, %d edges", len(reopened.Nodes()), len(reopened.Edges()))
	}
	if got := reopened.Favourites(); len(got) != 1 || got[0] != a {
		t.Errorf("favourites lost: %v", got)
	}
}

func TestFileStoreCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "council.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := Open("fresh", NewFileStore(path))
	if len(c.Nodes()) != 0 {
		t.Error("corrupt snapshot must open empty")
	}
	if c.Name() != "fresh" {
		t.Errorf("expected given name, got %q", c.Name())
	}
}

func TestOpenMissingSnapshot(t *testing.T) {
	c := Open("empty", NewFileStore(filepath.Join(t.TempDir(), "absent.json")))
	if len(c.Nodes()) != 0 || len(c.Edges()) != 0 {
		t.Error("missing snapshot must open empty")
	}
}
