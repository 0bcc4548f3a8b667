// Package main provides the entry point for the codeindexd CLI.
package main

import (
	"os"

	"github.com/codeindex-dev/codeindex/cmd/codeindexd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
