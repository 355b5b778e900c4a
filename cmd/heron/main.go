package main

import (
	"errors"
	"os"

	"github.com/simonhull/heron/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		if errors.Is(err, commands.ErrFailOnThreshold) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
