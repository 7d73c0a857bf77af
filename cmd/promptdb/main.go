// Package main provides the promptdb command-line interface.
package main

import (
	"os"

	"github.com/promptdb/promptdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
