package main

import (
	"fmt"
	"os"

	"github.com/cleared-dev/tally/internal/commands"
	"github.com/cleared-dev/tally/internal/config"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
