package main

import (
	"os"

	"github.com/preppal/backend/cmd/preppal/commands"
)

// main is the entry point for the PrepPal CLI
// ⭐ Unified CLI entry point: go run ./cmd/preppal [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
