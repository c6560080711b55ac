// Command sqlmaster is an interactive SQL tutorial in the terminal.
package main

import (
	"os"

	"github.com/mesh-intelligence/sqlmaster/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
