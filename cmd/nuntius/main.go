package main

import (
	"os"

	"github.com/meeseeks/nuntius/cmd/nuntius/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
