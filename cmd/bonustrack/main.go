package main

import (
	"os"

	"github.com/bonustrack-dev/bonustrack/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
