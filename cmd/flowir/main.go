// Command flowir parses source files into control-flow graphs.
package main

import (
	"os"

	"github.com/roach88/flowir/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
