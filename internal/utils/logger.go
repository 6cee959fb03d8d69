package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Logger is the minimal logging surface used across the probe. Keeping it an
// interface lets tests run with a no-op implementation.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Errorf(format string, v ...interface{})
	Fatalf(format string, v ...interface{})
}

// LogLevel defines the verbosity of the logger.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorDim    = "\033[2m"
)

func colorize(s string, color string, noColor bool) string {
	if noColor {
		return s
	}
	return color + s + colorReset
}

type defaultLogger struct {
	out      *log.Logger
	errOut   *log.Logger
	logLevel LogLevel
	noColor  bool
}

// NewDefaultLogger creates a leveled logger writing debug/info/warn to stdout
// and error/fatal to stderr. Silent mode discards everything below error so
// the trial stream stays clean for piping.
func NewDefaultLogger(level LogLevel, noColor bool, silent bool) Logger {
	var stdOut io.Writer = os.Stdout
	if silent {
		stdOut = io.Discard
	}
	return &defaultLogger{
		out:      log.New(stdOut, "", 0),
		errOut:   log.New(os.Stderr, "", 0),
		logLevel: level,
		noColor:  noColor,
	}
}

// NewNoOpLogger returns a logger that discards everything. Used by tests.
func NewNoOpLogger() Logger {
	discard := log.New(io.Discard, "", 0)
	return &defaultLogger{out: discard, errOut: discard, logLevel: LevelFatal + 1, noColor: true}
}

func (l *defaultLogger) logf(dst *log.Logger, levelStr string, levelColor string, format string, v ...interface{}) {
	prefix := fmt.Sprintf("%s [%s] ",
		colorize(fmt.Sprintf("[%s]", time.Now().Format("15:04:05")), colorDim, l.noColor),
		colorize(levelStr, levelColor, l.noColor),
	)
	dst.Print(prefix + fmt.Sprintf(format, v...))
}

func (l *defaultLogger) Debugf(format string, v ...interface{}) {
	if l.logLevel <= LevelDebug {
		l.logf(l.out, "DEBUG", colorBlue, format, v...)
	}
}

func (l *defaultLogger) Infof(format string, v ...interface{}) {
	if l.logLevel <= LevelInfo {
		l.logf(l.out, "INFO", colorGreen, format, v...)
	}
}

func (l *defaultLogger) Warnf(format string, v ...interface{}) {
	if l.logLevel <= LevelWarn {
		l.logf(l.out, "WARN", colorYellow, format, v...)
	}
}

func (l *defaultLogger) Errorf(format string, v ...interface{}) {
	if l.logLevel <= LevelError {
		l.logf(l.errOut, "ERROR", colorRed, format, v...)
	}
}

func (l *defaultLogger) Fatalf(format string, v ...interface{}) {
	if l.logLevel <= LevelFatal {
		l.logf(l.errOut, "FATAL", colorRed, format, v...)
		os.Exit(1)
	}
}

// StringToLogLevel converts a log level string to LogLevel type.
// Defaults to LevelInfo if the string is unrecognized.
func StringToLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "fatal":
		return LevelFatal
	default:
		fmt.Fprintf(os.Stderr, "Unknown log level string '%s', defaulting to INFO.\n", levelStr)
		return LevelInfo
	}
}
