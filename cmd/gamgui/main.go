// Package main is the entry point for the gamgui CLI.
package main

import (
	"os"

	"github.com/gamgui-io/gamgui/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
