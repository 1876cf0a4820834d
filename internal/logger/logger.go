// Package logger provides process-wide logging for chatrelay.
// Debug and info messages are printed only when verbose mode is enabled via
// the --verbose flag; warnings and errors are always printed. Output goes to
// stderr so command output on stdout stays machine-readable.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func write(always bool, level, scope, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	prefix := "[" + level + "] "
	if scope != "" {
		prefix += scope + ": "
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	write(false, "DEBUG", "", format, args)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	write(false, "INFO", "", format, args)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(true, "WARN", "", format, args)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(true, "ERROR", "", format, args)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Scope tags every message with a component name, e.g. "cdp" or "orchestrator".
type Scope string

// Debug prints a scoped message if verbose mode is enabled.
func (s Scope) Debug(format string, args ...any) {
	write(false, "DEBUG", string(s), format, args)
}

// Info prints a scoped informational message if verbose mode is enabled.
func (s Scope) Info(format string, args ...any) {
	write(false, "INFO", string(s), format, args)
}

// Warn prints a scoped warning.
func (s Scope) Warn(format string, args ...any) {
	write(true, "WARN", string(s), format, args)
}

// Error prints a scoped error.
func (s Scope) Error(format string, args ...any) {
	write(true, "ERROR", string(s), format, args)
}
