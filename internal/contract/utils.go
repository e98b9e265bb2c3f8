package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Rating label constants.
const (
	ExcellentValue = "Excellent" // Excellent value
	GoodValue      = "Good"      // Good value
	FairValue      = "Fair"      // Fair value
	PoorValue      = "Poor"      // Poor value
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // excellentColor represents a strong positive signal.
	GoodColor      = color.New(color.FgCyan)              // goodColor represents a healthy rating.
	FairColor      = color.New(color.FgYellow)            // fairColor represents standard caution.
	PoorColor      = color.New(color.FgRed, color.Bold)   // poorColor represents a warning.
)

// GetPlainLabel returns a plain text label for a 0-5 product rating.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(rate float64) string {
	switch {
	case rate >= 4.5:
		return ExcellentValue
	case rate >= 3.5:
		return GoodValue
	case rate >= 2.5:
		return FairValue
	default:
		return PoorValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(rate float64) string {
	text := GetPlainLabel(rate)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	default: // "Poor"
		return PoorColor.Sprint(text)
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

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// TruncateText truncates s to maxWidth runes with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
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
