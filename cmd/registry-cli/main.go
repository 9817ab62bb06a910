// Command registry-cli is a thin operator tool for pushing a local YAML
// interface declaration to the registry, listing known components, and
// watching a declaration file for changes to re-push it automatically.
package main

import (
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
