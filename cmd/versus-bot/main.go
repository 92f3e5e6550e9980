package main

import (
	"os"

	"versusbot.dev/wreck-league-go/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
