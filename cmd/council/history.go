package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/history"
)

func historyCmd(args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dir := fs.String("dir", defaultDataDir(), "data directory")
	sync := fs.Bool("sync", false, "reconcile with the server before listing")
	fs.Parse(args)

	store := openHistory(*dir)
	if *sync {
		if err := store.Sync(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "council: sync failed, showing local cache:", err)
		}
	}

	records := store.Records()
	if len(records) == 0 {
		fmt.Println("no conversations yet")
		return nil
	}

	for _, r := range records {
		query := r.Query
		if len(query) > 60 {
			query = query[:57] + "..."
		}
		fmt.Printf("%s  %s  %6d tok  %s\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Tokens,
			query,
		)
	}
	return nil
}

func showCmd(args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dir := fs.String("dir", defaultDataDir(), "data directory")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("show needs a conversation id")
	}
	id := fs.Arg(0)

	store := openHistory(*dir)
	record, ok := store.Get(id)
	if !ok {
		return fmt.Errorf("no conversation %q in history", id)
	}

	machine := execution.NewMachine()
	machine.Adopt(history.Restore(record))
	ex := machine.Current()

	printer := newPrinter(os.Stdout, record.Config)
	fmt.Printf("query: %s\n\n", ex.Query)
	for nodeID, resp := range ex.Responses {
		fmt.Printf("%s\n%s\n\n", printer.label(nodeID), resp.Content)
	}
	for nodeID, ranking := range ex.Rankings {
		ranked := make([]string, len(ranking.Rankings))
		for i, rid := range ranking.Rankings {
			ranked[i] = printer.label(rid)
		}
		fmt.Printf("%s ranked: %v\n", printer.label(nodeID), ranked)
	}
	if ex.FinalAnswer != nil {
		fmt.Printf("\nfinal answer:\n%s\n", ex.FinalAnswer.Content)
	}
	printer.summary(ex)
	return nil
}

func deleteCmd(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dir := fs.String("dir", defaultDataDir(), "data directory")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("delete needs a conversation id")
	}
	id := fs.Arg(0)

	store := openHistory(*dir)
	store.Delete(context.Background(), id)
	store.Wait()
	fmt.Println("deleted", id)
	return nil
}

func syncCmd(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	dir := fs.String("dir", defaultDataDir(), "data directory")
	fs.Parse(args)

	store := openHistory(*dir)
	if err := store.Sync(context.Background()); err != nil {
		return err
	}
	fmt.Printf("synced, %d conversations\n", len(store.Records()))
	return nil
}
