// Command ledctl drives one LED from a Linux host, or a remote board running
// the ledkit console firmware.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
