package main

import (
	"os"

	"github.com/robalobadob/linguapet/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
