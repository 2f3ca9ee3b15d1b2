package main

import (
	"os"

	"github.com/custodia-labs/jbsync/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
