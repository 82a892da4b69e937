package main

import (
	"os"

	"github.com/jsvm/jsvm/src/cmd"

	// Import providers register themselves
	_ "github.com/jsvm/jsvm/src/importers/fnm"
	_ "github.com/jsvm/jsvm/src/importers/nvm"
)

func main() {
	os.Exit(cmd.Execute())
}
