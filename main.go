// Package main is the entry point for the netlens traffic observer.
package main

import (
	"fmt"
	"os"

	"netlens.dev/netlens/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
