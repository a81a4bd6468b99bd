// Command vocabctl is a single-learner study tool. It seeds the Oxford word
// list into a local SQLite database and runs the review loop from the
// terminal.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newCLI(os.Stdout, os.Stderr).execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
