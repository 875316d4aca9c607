// rickrack - a colour harmony workbench
//
// rickrack builds five-colour harmonies, blends them into colour boards,
// extracts palettes from images and shares a live session with local
// programs over a loopback line protocol.
package main

import (
	"os"

	"github.com/jmylchreest/rickrack/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
