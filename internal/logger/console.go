// Package logger provides the leveled console logger used while checking
// markdown files.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes leveled messages prefixed with [HH:MM:SS] timestamps.
// It is safe for concurrent use. Level tags are colored when the writer is
// os.Stdout or os.Stderr and color is not disabled.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger that writes to writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// An empty or invalid level defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		now:         time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// false when NO_COLOR is set or the stream is not a TTY
		return !color.NoColor
	}

	return false
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "error":
		return true
	}

	return false
}

func normalizeLogLevel(level string) string {
	if !ValidLevel(level) {
		return "info"
	}

	return strings.ToLower(strings.TrimSpace(level))
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("trace", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("debug", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("info", message)
}

// LogWarn logs a warning.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("warn", message)
}

// LogError logs an error.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("error", message)
}

// LogOutput logs a captured stream of a block at debug level, one line per
// message line, so multi-line output keeps its prefixes.
func (cl *ConsoleLogger) LogOutput(location, stream, output string) {
	if len(output) == 0 || !cl.shouldLog("debug") {
		return
	}

	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		cl.LogDebug(fmt.Sprintf("%s %s | %s", location, stream, line))
	}
}

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	tag := "[" + strings.ToUpper(level) + "]"
	if cl.colorOutput {
		tag = levelColor(level).Sprint(tag)
	}

	timestamp := cl.now().Format("15:04:05")
	fmt.Fprintf(cl.writer, "[%s] %s %s\n", timestamp, tag, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "trace", "debug":
		return color.New(color.FgCyan)
	case "warn":
		return color.New(color.FgYellow)
	case "error":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgGreen)
	}
}
