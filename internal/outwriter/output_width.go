package outwriter

import (
	"os"

	"golang.org/x/term"
)

// Name column bounds for table output.
const (
	minNameWidth = 12
	maxNameWidth = 40
)

// getMaxTableNameWidth calculates the maximum width for athlete names in table
// output based on terminal width.
func getMaxTableNameWidth() int {
	termWidth := 80 // Conservative default for narrow terminals and CI
	if detected, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && detected > 0 {
		termWidth = detected
	}
	return nameWidthFor(termWidth)
}

// nameWidthFor reserves room for the Rank and Points columns plus borders.
func nameWidthFor(termWidth int) int {
	const reserved = 30
	return min(max(termWidth-reserved, minNameWidth), maxNameWidth)
}
