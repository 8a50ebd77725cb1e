// Package logger is the process-wide diagnostic log of sinkfield.
// Debug and Info lines only appear in verbose mode (the CLI's --verbose);
// warnings are always written.
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

// SetVerbose enables or disables debug and info output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects the log. nil restores os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	output = w
}

func write(gated bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}

// Debug logs a verbose-only diagnostic line.
func Debug(format string, args ...any) { write(true, "[DEBUG] ", format, args...) }

// Info logs a verbose-only progress line.
func Info(format string, args ...any) { write(true, "[INFO] ", format, args...) }

// Warn logs a warning regardless of verbose mode.
func Warn(format string, args ...any) { write(false, "[WARN] ", format, args...) }

// Section prints a header separating phases of a verbose run.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
