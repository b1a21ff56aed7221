package main

import (
	"os"

	"github.com/pterm/pterm"
)

var version = "dev"

func main() {
	if err := NewApp(version).Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
