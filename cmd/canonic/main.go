// Package main is the entrypoint for the Canonic CLI.
// The CLI provides commands for table management, query execution,
// plan compilation, and system diagnostics.
package main

import (
	"os"

	"github.com/canonica-labs/dagplan/internal/cli"
)

func main() {
	os.Exit(cli.New().Execute())
}
