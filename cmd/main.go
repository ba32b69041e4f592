package main

import (
	"os"

	"leaderboard-watch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
