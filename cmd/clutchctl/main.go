// Command clutchctl ingests play-by-play data and asks clutch questions
// from the shell.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
