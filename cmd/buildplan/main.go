package main

import (
	"os"

	"github.com/timitprog-hue/buildplan/cmd/buildplan/commands"
)

func main() {
	os.Exit(commands.Execute())
}
