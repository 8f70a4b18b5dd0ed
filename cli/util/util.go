// Package util provides small formatting helpers for the mqbundle CLI.
package util

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

// FormatBytes formats a byte count; negative counts mean "not measured".
func FormatBytes(n int) string {
	if n < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(n))
}

// FormatDuration rounds a build duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

// Plural returns "1 module" / "3 modules"
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}

// TruncateString truncates a string to the specified length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// IsTerminal returns true if stderr is a terminal
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd())) //nolint:gosec // fd fits in int
}
