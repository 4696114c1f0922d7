package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const LevelTrace = slog.Level(-8)

var programLevel = new(slog.LevelVar)

// Setup installs the process-wide slog logger. format is "json" (default)
// or "text"; level is one of TRACE, DEBUG, INFO, WARN, ERROR.
func Setup(level, format string) *slog.Logger {
	return setup(os.Stdout, level, format)
}

func setup(w io.Writer, level, format string) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v, using INFO\n", err)
		lvl = slog.LevelInfo
	}
	programLevel.Set(lvl)

	opts := &slog.HandlerOptions{Level: programLevel}
	var h slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

func SetLevel(l slog.Level) { programLevel.Set(l) }

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return slog.LevelDebug, nil
	case "", "INFO":
		return slog.LevelInfo, nil
	case "WARN", "WARNING":
		return slog.LevelWarn, nil
	case "ERROR":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
