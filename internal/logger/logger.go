// Package logger is the process-wide diagnostic output for kbase.
//
// Debug, Info, Warn and Section lines are written only after SetVerbose(true),
// which the CLI does for --verbose. Error lines are always written.
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

func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

func Debug(format string, args ...any) { emit(false, "[DEBUG] ", format, args) }

func Info(format string, args ...any) { emit(false, "[INFO] ", format, args) }

func Warn(format string, args ...any) { emit(false, "[WARN] ", format, args) }

func Error(format string, args ...any) { emit(true, "[ERROR] ", format, args) }

// Section starts a visually separated block, e.g. one per indexed file.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func emit(always bool, prefix, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
