// ifextract - Interface Table Extraction Tool
//
// ifextract turns saved device session logs into a single per-interface
// table, merging configuration and runtime status by interface name.
package main

import (
	"os"

	"github.com/ccollicutt/ifextract/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
