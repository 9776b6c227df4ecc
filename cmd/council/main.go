// Command council is the terminal client: it composes councils, runs
// queries against a quorum server and keeps a replayable local history.
package main

import (
	"fmt"
	"os"

	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
	"github.com/quorum-ai/quorum/backend/pkg/logger/console"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: council <command> [flags]

Commands:
  run      run a query against a council
  compose  compose a council configuration and save it
  history  list past conversations
  show     replay one past conversation
  delete   delete a past conversation
  sync     reconcile local history with the server`)
	os.Exit(2)
}

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "council",
	})
	logger.Init(consoleLogger)

	if len(os.Args) < 2 {
		usage()
	}

	var err error
	switch os.Args[1] {
	case "run":
		err = runCmd(os.Args[2:])
	case "compose":
		err = composeCmd(os.Args[2:])
	case "history":
		err = historyCmd(os.Args[2:])
	case "show":
		err = showCmd(os.Args[2:])
	case "delete":
		err = deleteCmd(os.Args[2:])
	case "sync":
		err = syncCmd(os.Args[2:])
	default:
		usage()
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "council:", err)
		os.Exit(1)
	}
}
