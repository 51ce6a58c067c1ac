// Command swingctl generates, inspects and compares moment versions from the
// command line.
package main

import (
	"os"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
