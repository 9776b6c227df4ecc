package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quorum-ai/quorum/backend/pkg/council"
)

func composeCmd(args []string) error {
	fs := flag.NewFlagSet("compose", flag.ExitOnError)
	size := fs.Int("size", 3, "number of council members (excluding the chairman)")
	mode := fs.String("mode", string(council.ComposeBalanced), "composition mode: balanced, specialized or diverse")
	name := fs.String("council", "council", "name to save the council under")
	preset := fs.String("preset", "", "save a built-in preset instead of composing")
	dir := fs.String("dir", defaultDataDir(), "data directory")
	fs.Parse(args)

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return err
	}
	store := council.NewFileStore(filepath.Join(*dir, *name+".json"))

	var cfg council.Config
	if *preset != "" {
		p, ok := council.PresetByID(*preset)
		if !ok {
			return fmt.Errorf("unknown preset %q", *preset)
		}
		cfg = council.Config{Name: *name, Nodes: p.Nodes, Edges: p.Edges}
	} else {
		composed, err := council.Compose(*size, council.ComposeMode(*mode))
		if err != nil {
			return err
		}
		composed.Name = *name
		cfg = composed
	}

	c := council.New(*name, store)
	c.LoadPreset(council.Preset{Name: *name, Nodes: cfg.Nodes, Edges: cfg.Edges})

	fmt.Printf("saved council %q with %d members\n", *name, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		marker := " "
		if n.Data.IsChairman {
			marker = "*"
		}
		fmt.Printf(" %s %-24s %s\n", marker, n.Data.Model, n.Data.Role)
	}
	return nil
}
