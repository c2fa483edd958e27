package main

import (
	"fmt"
	"os"
)

// Set at build time via -ldflags "-X main.version=...".
var (
	version   = "dev"
	gitCommit = "none"
	buildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ocrconvert: %v\n", err)
		os.Exit(1)
	}
}
