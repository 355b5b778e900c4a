package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	styled                = IsTerminal(os.Stdout)
	verboseMode bool
)

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// SetOutput redirects all messages to w (nil restores stdout). Styling
// follows whether w is a terminal.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	mu.Lock()
	defer mu.Unlock()
	out = w
	styled = IsTerminal(w)
}

// SetVerbose enables or disables verbose output for debugging.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// Success prints a success message in green.
func Success(msg string) {
	emit(successStyle, "✅ "+msg)
}

// Warn prints a warning in yellow.
func Warn(msg string) {
	emit(warnStyle, "⚠️  "+msg)
}

// Error prints an error message in red.
// Use this for failures that need user attention.
func Error(msg string) {
	emit(errorStyle, "❌ "+msg)
}

// Info prints an informational message in cyan.
func Info(msg string) {
	emit(infoStyle, "ℹ️  "+msg)
}

// Step prints an indented step message in gray.
//
// Example:
//
//	output.Step("heron scan . --record")
func Step(msg string) {
	emit(stepStyle, "   "+msg)
}

// Verbose prints a debug message only if verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	enabled := verboseMode
	mu.Unlock()
	if enabled {
		emit(stepStyle, "🔍 "+msg)
	}
}

func emit(style lipgloss.Style, msg string) {
	mu.Lock()
	defer mu.Unlock()
	if styled {
		msg = style.Render(msg)
	}
	fmt.Fprintln(out, msg)
}
