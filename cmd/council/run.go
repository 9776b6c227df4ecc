package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/history"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"
	"github.com/quorum-ai/quorum/backend/pkg/transport"
)

// defaultDataDir is where the CLI keeps its council file and history
// cache.
func defaultDataDir() string {
	if dir := util.GetEnv("QUORUM_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quorum"
	}
	return filepath.Join(home, ".quorum")
}

func serverURL() string {
	return util.GetEnvString("QUORUM_SERVER", "http://localhost:8080")
}

func wsURL(base string) string {
	ws := strings.Replace(base, "http://", "ws://", 1)
	ws = strings.Replace(ws, "https://", "wss://", 1)
	return ws + "/api/execute/ws"
}

func openHistory(dir string) *history.Store {
	remote := history.NewClient(serverURL(), util.GetEnv("API_KEY"))
	return history.NewStore(filepath.Join(dir, "history.json"), remote)
}

// loadConfig resolves the council to run: a preset by id, or the named
// saved council from the data directory.
func loadConfig(dir, preset, name string) (council.Config, error) {
	if preset != "" {
		p, ok := council.PresetByID(preset)
		if !ok {
			return council.Config{}, fmt.Errorf("unknown preset %q", preset)
		}
		return council.Config{Name: p.Name, Nodes: p.Nodes, Edges: p.Edges}, nil
	}

	store := council.NewFileStore(filepath.Join(dir, name+".json"))
	return council.Open(name, store).Export(), nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	preset := fs.String("preset", "", "run a built-in preset instead of a saved council")
	name := fs.String("council", "council", "name of the saved council to run")
	dir := fs.String("dir", defaultDataDir(), "data directory")
	fs.Parse(args)

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		return fmt.Errorf("run needs a query, e.g.: council run what is the capital of France?")
	}

	cfg, err := loadConfig(*dir, *preset, *name)
	if err != nil {
		return err
	}
	if len(cfg.Nodes) == 0 {
		return fmt.Errorf("council %q has no members; compose one first", *name)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nodeIDs := make([]string, len(cfg.Nodes))
	for i, n := range cfg.Nodes {
		nodeIDs[i] = n.ID
	}

	machine := execution.NewMachine()
	machine.Start(query, nodeIDs)

	printer := newPrinter(os.Stdout, cfg)
	client := transport.NewClient(wsURL(serverURL()), util.GetEnv("API_KEY"))
	err = client.Execute(ctx, query, cfg, func(typ protocol.EventType, ev protocol.Event) {
		machine.Apply(ev)
		printer.print(ev)
	})
	if err != nil {
		return err
	}

	ex := machine.Current()
	printer.summary(ex)

	store := openHistory(*dir)
	store.Add(ctx, history.NewRecord(ex, cfg))
	store.Wait()
	return nil
}
