// Command fieldcrypt is the operator tool for the field encryption layer:
// it encrypts, decodes and hashes single values, and seeds, looks up and
// migrates rows in the reference patient store.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
