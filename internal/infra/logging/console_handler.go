package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	ansiCodeReset     = "\033[0m"
	ansiCodeRed       = "\033[31m"
	ansiCodeGreen     = "\033[32m"
	ansiCodeYellow    = "\033[33m"
	ansiCodeCyan      = "\033[36m"
	ansiCodeGray      = "\033[90m"
	ansiCodeUnderline = "\033[4m"
)

//nolint:gochecknoglobals
var ansiCodeMap = map[slog.Level]string{
	slog.LevelDebug: ansiCodeCyan,
	slog.LevelInfo:  ansiCodeGreen,
	slog.LevelWarn:  ansiCodeYellow,
	slog.LevelError: ansiCodeRed,
}

// ConsoleHandler implements slog.Handler with colored, human-readable output
// suitable for development environments.
type ConsoleHandler struct {
	// Output is the destination for log output (typically os.Stdout or os.Stderr)
	Output io.Writer
	// Level is the minimum level for log records to be processed
	Level slog.Leveler
	// LoggerLevels maps logger names (or dotted name prefixes) to minimum log levels
	LoggerLevels map[string]slog.Level

	attrs  []slog.Attr
	groups []string
}

var _ slog.Handler = (*ConsoleHandler)(nil)

// Handle implements slog.Handler by formatting the log record with ANSI colors,
// timestamps and the caller location.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var attrs []slog.Attr

	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)

		return true
	})

	attrs = append(h.attrs, attrs...)

	if r.Level < h.minLevel(attrs) {
		return nil
	}

	logMessage := ansiCodeGray + r.Time.Format("15:04:05.000000") + ansiCodeReset
	logMessage += " " + ansiCodeMap[r.Level] + "[" + r.Level.String() + "]" + ansiCodeReset
	logMessage += " " + r.Message

	var prefix string

	if len(h.groups) > 0 {
		prefix = strings.Join(h.groups, ".") + "."
	}

	if len(attrs) > 0 {
		logMessage += " " + ansiCodeGray + "|" + ansiCodeReset
		logMessage += renderAttrs(prefix, attrs)
	}

	if r.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{r.PC}).Next()
		fn := strings.Split(frame.Function, string(os.PathSeparator))

		logMessage += "\n-> " + ansiCodeGray + fn[len(fn)-1] + "()"
		logMessage += " in " + ansiCodeUnderline + frame.File + ":" + strconv.Itoa(frame.Line) + ansiCodeReset
	}

	fmt.Fprintln(h.Output, logMessage)

	return nil
}

// minLevel resolves the effective level for the record's logger name, walking
// from the full dotted name to its shortest prefix.
func (h *ConsoleHandler) minLevel(attrs []slog.Attr) slog.Level {
	var name string

	for _, attr := range attrs {
		if attr.Key == LoggerNameKey {
			name = attr.Value.String()

			break
		}
	}

	for name != "" {
		if level, ok := h.LoggerLevels[name]; ok {
			return level
		}

		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			break
		}

		name = name[:idx]
	}

	return h.Level.Level()
}

func renderAttrs(prefix string, attrs []slog.Attr) (out string) {
	for _, attr := range attrs {
		if attr.Value.Kind() == slog.KindGroup {
			out += renderAttrs(prefix+attr.Key+".", attr.Value.Group())

			continue
		}

		out += " " + prefix + attr.Key
		out += "=" + ansiCodeGray + attr.Value.String() + ansiCodeReset
	}

	return
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) Handler {
	return &ConsoleHandler{
		Output:       h.Output,
		Level:        h.Level,
		LoggerLevels: h.LoggerLevels,
		attrs:        append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...),
		groups:       h.groups,
	}
}

// WithGroup implements slog.Handler.WithGroup.
func (h *ConsoleHandler) WithGroup(name string) Handler {
	return &ConsoleHandler{
		Output:       h.Output,
		Level:        h.Level,
		LoggerLevels: h.LoggerLevels,
		attrs:        h.attrs,
		groups:       append(h.groups[:len(h.groups):len(h.groups)], name),
	}
}

// Enabled implements slog.Handler.Enabled. Records below the global level still
// pass when some logger override allows a lower level; Handle filters them per logger.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := h.Level.Level()

	for _, l := range h.LoggerLevels {
		minLevel = min(minLevel, l)
	}

	return minLevel <= level
}
