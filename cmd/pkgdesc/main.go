// Command pkgdesc inspects and resolves a Python package descriptor.
package main

import (
	"os"

	"github.com/git-pkgs/pkgdesc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
