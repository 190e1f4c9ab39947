// Package main is the entry point for the roboprop command.
package main

import (
	"os"

	"github.com/art-e-fact/RoboProp/cmd/roboprop/commands"
)

func main() {
	os.Exit(commands.Execute())
}
