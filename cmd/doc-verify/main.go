// Command doc-verify runs the acceptance document checks from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/a3tai/mcp-doc-verifier/internal/verifier"
)

func main() {
	cmd := newRootCmd(os.Stdout, verifier.NewFromConfig)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
