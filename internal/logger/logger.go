// Package logger prints progress detail to stderr when --verbose is
// set. Sync and search run quietly otherwise; the verbose stream is
// how users see which files were picked up, how documents were
// chunked and which provider served an embedding call.
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

// SetVerbose switches the verbose stream on or off.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether the verbose stream is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects the stream, mainly so tests can capture it.
// Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// emit writes one tagged line when the stream is on.
func emit(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, tag+" "+format+"\n", args...)
}

// Debug traces fine-grained steps, roughly one line per file or chunk.
func Debug(format string, args ...any) {
	emit("[DEBUG]", format, args...)
}

// Info reports phase-level progress.
func Info(format string, args ...any) {
	emit("[INFO]", format, args...)
}

// Warn flags recoverable problems, such as a file that failed to parse.
func Warn(format string, args ...any) {
	emit("[WARN]", format, args...)
}

// Section opens a named block in the stream.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	fmt.Fprintf(output, "\n=== %s ===\n", name)
}
