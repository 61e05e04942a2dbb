// Package main implements the tempo command, which serves the adaptive task
// scheduler over HTTP and provides operator tooling around it.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
