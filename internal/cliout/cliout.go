// Package cliout provides output formatting for the hostadm command
// tree. It supports a human-readable default and a JSON mode, with
// ANSI styling that degrades to plain ASCII on terminals without
// color or UTF-8.
package cliout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Format selects the output format.
type Format string

const (
	// FormatDefault is the human-readable format.
	FormatDefault Format = "default"
	// FormatJSON emits one indented JSON document.
	FormatJSON Format = "json"
)

// ANSI styling codes.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightBlue   = "\033[94m"
)

// Status symbols, with ASCII fallbacks for non-UTF-8 terminals.
const (
	symbolCheck   = "✓"
	symbolCross   = "✗"
	symbolWarning = "⚠"
	symbolInfo    = "ℹ"

	asciiCheck   = "[+]"
	asciiCross   = "[-]"
	asciiWarning = "[!]"
	asciiInfo    = "[i]"
)

var (
	mu           sync.RWMutex
	out          io.Writer = os.Stdout
	globalFormat           = FormatDefault
	noColor                = false
)

// supportsUnicode is fixed at startup from the locale. Serial consoles
// and minimal rescue environments often run with LANG=C.
var supportsUnicode = detectUnicodeSupport()

func detectUnicodeSupport() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return strings.Contains(strings.ToUpper(v), "UTF")
		}
	}
	return false
}

// SetOutput redirects all output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	out = w
	mu.Unlock()
}

// NoColor disables ANSI styling.
func NoColor() {
	mu.Lock()
	noColor = true
	mu.Unlock()
}

// ForceColor re-enables ANSI styling.
func ForceColor() {
	mu.Lock()
	noColor = false
	mu.Unlock()
}

// SetFormat sets the global output format.
func SetFormat(format string) error {
	mu.Lock()
	defer mu.Unlock()

	switch format {
	case "default", "":
		globalFormat = FormatDefault
	case "json":
		globalFormat = FormatJSON
	default:
		return fmt.Errorf("invalid output format: %s (valid options: default, json)", format)
	}
	return nil
}

// IsJSON reports whether JSON output is selected.
func IsJSON() bool {
	mu.RLock()
	defer mu.RUnlock()
	return globalFormat == FormatJSON
}

// PrintJSON writes data as indented JSON.
func PrintJSON(data interface{}) error {
	mu.RLock()
	w := out
	mu.RUnlock()

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Print emits data in the configured format: the JSON document in JSON
// mode, the formatter's output otherwise.
func Print(data interface{}, formatter func()) error {
	if IsJSON() {
		return PrintJSON(data)
	}
	formatter()
	return nil
}

func writef(format string, args ...interface{}) {
	mu.RLock()
	w := out
	mu.RUnlock()
	fmt.Fprintf(w, format, args...)
}

// paint wraps s in a color unless coloring is off.
func paint(color, s string) string {
	mu.RLock()
	off := noColor
	mu.RUnlock()

	if off {
		return s
	}
	return color + s + Reset
}

func icon(unicode, ascii string) string {
	if supportsUnicode {
		return unicode
	}
	return ascii
}

// Success prints a message with a green check.
func Success(format string, args ...interface{}) {
	writef("%s %s\n", paint(BrightGreen, icon(symbolCheck, asciiCheck)), fmt.Sprintf(format, args...))
}

// Error prints a message with a red cross.
func Error(format string, args ...interface{}) {
	writef("%s %s\n", paint(BrightRed, icon(symbolCross, asciiCross)), fmt.Sprintf(format, args...))
}

// Warning prints a message with a yellow warning sign.
func Warning(format string, args ...interface{}) {
	writef("%s %s\n", paint(BrightYellow, icon(symbolWarning, asciiWarning)), fmt.Sprintf(format, args...))
}

// Info prints a message with a blue info sign.
func Info(format string, args ...interface{}) {
	writef("%s %s\n", paint(BrightBlue, icon(symbolInfo, asciiInfo)), fmt.Sprintf(format, args...))
}

// Plain prints unstyled text with a trailing newline.
func Plain(format string, args ...interface{}) {
	writef(format+"\n", args...)
}

// Item prints an indented line.
func Item(format string, args ...interface{}) {
	writef("   %s\n", fmt.Sprintf(format, args...))
}

// Label prints an indented label/value pair.
func Label(label, value string) {
	writef("   %s %s\n", paint(Dim, fmt.Sprintf("%-12s", label+":")), value)
}

// Muted returns dimmed text, used for rendered command lines.
func Muted(format string, args ...interface{}) string {
	return paint(Dim, fmt.Sprintf(format, args...))
}

// Status colors an invocation status word.
func Status(status string) string {
	switch status {
	case "success":
		return paint(BrightGreen, status)
	case "dry_run":
		return paint(Cyan, status)
	case "denied", "rate_limited", "timeout", "canceled":
		return paint(BrightYellow, status)
	case "error", "killed":
		return paint(BrightRed, status)
	default:
		return status
	}
}

// TableRow is one table row keyed by column header.
type TableRow map[string]string

// Table prints an aligned table with a header rule. Nothing is printed
// for an empty row set.
func Table(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make(map[string]int)
	for _, header := range headers {
		widths[header] = len(header)
	}
	for _, row := range rows {
		for _, header := range headers {
			if len(row[header]) > widths[header] {
				widths[header] = len(row[header])
			}
		}
	}

	var b strings.Builder
	b.WriteString("   ")
	for _, header := range headers {
		fmt.Fprintf(&b, "%-*s  ", widths[header], header)
	}
	b.WriteString("\n   ")
	for _, header := range headers {
		b.WriteString(strings.Repeat("-", widths[header]) + "  ")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("   ")
		for _, header := range headers {
			fmt.Fprintf(&b, "%-*s  ", widths[header], row[header])
		}
		b.WriteString("\n")
	}
	writef("%s", b.String())
}
