package main

import (
	"loreweave/internal/server"
	"loreweave/internal/util"
	"loreweave/pkg/logger"
	"loreweave/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
