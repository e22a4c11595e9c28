package main

import (
	"os"

	"safeclient/cmd/safe/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
