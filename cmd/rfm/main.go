package main

import (
	"os"

	"github.com/segmend/rfm/cmd/rfm/commands"
)

// main is the entry point for the rfm CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
