// Package log provides the CLI's leveled logging and the spinner shown
// during long-running calls, matching the teacher's internal/log plus the
// level gating from the original gitar's logging macros (info/debug).
package log

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Level is the active verbosity. Set by the root command's
// PersistentPreRunE after flags/env are resolved.
type Level int

const (
	LevelError Level = iota
	LevelInfo
	LevelDebug
)

var current = LevelError

// SetLevel configures the global verbosity. verbose corresponds to -v/
// --verbose; debug env mirrors RUST_LOG=debug from the original CLI.
func SetLevel(verbose bool, debugEnv bool) {
	switch {
	case debugEnv:
		current = LevelDebug
	case verbose:
		current = LevelInfo
	default:
		current = LevelError
	}
}

// Info writes an INFO-level message to stderr if the active level permits it.
func Info(format string, args ...any) {
	if current >= LevelInfo {
		fmt.Fprintf(os.Stderr, "INFO  "+format+"\n", args...)
	}
}

// Debug writes a DEBUG-level message to stderr if the active level permits it.
func Debug(format string, args ...any) {
	if current >= LevelDebug {
		fmt.Fprintf(os.Stderr, "DEBUG "+format+"\n", args...)
	}
}

// Warn always writes a WARN-level message to stderr. Used for recoverable
// conditions such as a corrupt cache entry (spec.md §7: logged at WARN).
func Warn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "WARN  "+format+"\n", args...)
}

// WithSpinner executes fn while showing a spinner with the given message.
func WithSpinner(message string, fn func() error) error {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message

	if err := s.Color("green"); err != nil {
		return fmt.Errorf("coloring spinner: %w", err)
	}

	s.Start()
	s.FinalMSG = message + " \033[32m[done]\033[0m\n"
	defer s.Stop()

	return fn()
}
