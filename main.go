package main

import (
	"os"

	"github.com/geoclue-exporter/geodiag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
