package main

import (
	"os"

	"cashcount/cmd/cashctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
