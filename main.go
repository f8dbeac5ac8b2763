// main is the entry point of the contest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/stravacontest/contest/cmd"
	"github.com/stravacontest/contest/internal/store"
)

func main() {
	err := cmd.Execute()
	store.CloseStore()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
