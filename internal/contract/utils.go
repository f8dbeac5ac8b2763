package contract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Podium color variables for console output.
var (
	GoldColor   = color.New(color.FgYellow, color.Bold)
	SilverColor = color.New(color.FgWhite, color.Bold)
	BronzeColor = color.New(color.FgRed)
	PlainColor  = color.New(color.FgCyan)
)

// GetPlainRank returns the rank as shown in CSV, JSON and uncolored tables.
func GetPlainRank(rank int) string {
	return strconv.Itoa(rank)
}

// GetColorRank returns a colored rank for console output (table).
// The first three places get podium colors.
func GetColorRank(rank int) string {
	text := GetPlainRank(rank)
	switch rank {
	case 1:
		return GoldColor.Sprint(text)
	case 2:
		return SilverColor.Sprint(text)
	case 3:
		return BronzeColor.Sprint(text)
	default:
		return PlainColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// TruncateName shortens s to maxWidth runes, marking the cut with "...".
func TruncateName(s string, maxWidth int) string {
	r := []rune(s)
	if maxWidth <= 3 || len(r) <= maxWidth {
		return s
	}
	return string(r[:maxWidth-3]) + "..."
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	slog.Error(msg, "error", err)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	slog.Warn(msg, "error", err)
}

// GetDBFilePath returns the path to the default SQLite DB file.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".contest.db"
	}
	return filepath.Join(homeDir, ".contest.db")
}

// ParseBoolString parses yes/no style flag values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
