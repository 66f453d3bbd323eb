package main

import (
	"os"

	"github.com/spigell/audit-recommender/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
