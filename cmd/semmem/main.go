package main

import (
	"os"

	"github.com/semcore/semmem/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
