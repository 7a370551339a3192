package main

import (
	"os"

	"github.com/wonny/pitviper/backend/cmd/pitviper/commands"
)

// main is the entry point for the Pit Viper CLI: go run ./cmd/pitviper [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
