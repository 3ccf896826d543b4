// Package main provides the entry point for the rimepatch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-rimepatch/cmd/rimepatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
