package main

import (
	"os"

	"github.com/tomsboren/aivc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
