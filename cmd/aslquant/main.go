package main

import (
	"os"

	"aslquant/cmd/aslquant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
