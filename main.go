package main

import (
	"os"

	"github.com/slatecast/slatecast/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
