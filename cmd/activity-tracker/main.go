package main

import (
	"os"

	"github.com/kodustech/activity-tracker/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
