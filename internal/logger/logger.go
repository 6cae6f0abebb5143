package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var log = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Init resets the package logger to text output on stdout at info level.
func Init() {
	log = slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(log)
}

// Configure selects the output format ("json" or "text") and minimum level
// ("debug", "info", "warn", "error").
func Configure(level, format string) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		log = New(NewJSONHandler(os.Stdout, opts))
	} else {
		log = New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(log)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func New(h slog.Handler) *slog.Logger {
	return slog.New(h)
}

func NewJSONHandler(w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	return slog.NewJSONHandler(w, opts)
}

// L returns the package logger for components that keep their own
// *slog.Logger.
func L() *slog.Logger {
	return log
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Infof(format string, v ...any) {
	log.Info(fmt.Sprintf(format, v...))
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Warnf(format string, v ...any) {
	log.Warn(fmt.Sprintf(format, v...))
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

func Errorf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Debugf(format string, v ...any) {
	log.Debug(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	log.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}

func WithError(err error) *slog.Logger {
	return log.With("error", err)
}

func WithFields(fields map[string]interface{}) *slog.Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return log.With(args...)
}

// WithComponent tags every record with the emitting component, replacing the
// "[Component] ..." prefix convention of plain log output.
func WithComponent(name string) *slog.Logger {
	return log.With("component", name)
}
