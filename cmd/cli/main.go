// Command printssistant prints prepress advice, scripts and checklists for a
// job spec or an MIS XML export.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "printssistant:", err)
		os.Exit(1)
	}
}
