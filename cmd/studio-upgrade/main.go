package main

import (
	"os"

	"github.com/bianoble/studio/cmd/studio-upgrade/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
