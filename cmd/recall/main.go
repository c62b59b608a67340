package main

import (
	"os"

	"github.com/recall-labs/recall-cli/internal/adapters/driving/cli"
)

// version is set during build via -ldflags.
var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
