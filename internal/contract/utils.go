package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/stockpulse/schema"
)

// identifierPattern restricts schema and table names to plain SQL identifiers.
const identifierPattern = `^[a-zA-Z_][a-zA-Z0-9_]*$`

var identifierRegexp = regexp.MustCompile(identifierPattern)

// Color variables for console output.
var (
	SuccessColor   = color.New(color.FgGreen, color.Bold) // completed sessions
	PrimaryColor   = color.New(color.FgBlue, color.Bold)  // running sessions
	DangerColor    = color.New(color.FgRed, color.Bold)   // failed sessions
	SecondaryColor = color.New(color.FgHiBlack)           // anything else
)

// GetPlainLabel returns the capitalized display label for a session status.
func GetPlainLabel(status schema.SessionStatus) string {
	s := strings.TrimSpace(string(status))
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

// GetColorLabel returns a colored session label for console output (table).
func GetColorLabel(status schema.SessionStatus) string {
	text := GetPlainLabel(status)

	switch schema.ToneFor(status) {
	case schema.SuccessTone:
		return SuccessColor.Sprint(text)
	case schema.PrimaryTone:
		return PrimaryColor.Sprint(text)
	case schema.DangerTone:
		return DangerColor.Sprint(text)
	default:
		return SecondaryColor.Sprint(text)
	}
}

// ValidIdentifier reports whether name is safe to splice into SQL as an identifier.
func ValidIdentifier(name string) bool {
	return identifierRegexp.MatchString(name)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
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

// GetDBFilePath returns the path to the SQLite DB file used for local development.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".stockpulse.db"
	}
	return filepath.Join(homeDir, ".stockpulse.db")
}

// TruncateText shortens text to maxWidth runes, marking the cut with an ellipsis.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
