package main

import (
	"github.com/quorum-ai/quorum/backend/internal/server"
	"github.com/quorum-ai/quorum/backend/internal/util"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
	"github.com/quorum-ai/quorum/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "server",
	})
	logger.Init(consoleLogger)

	server.Init()
}
