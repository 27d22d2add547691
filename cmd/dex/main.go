package main

import (
	"fmt"
	"os"
)

// Version is the version of the application, set at build time
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
