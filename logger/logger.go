package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var (
	/*
		DefaultLogger is the logger shared by every package of the reaper.
		It writes to stderr so that the per-object report on stdout stays
		clean enough to pipe into other tools.
	*/
	DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
		Level:           log.InfoLevel,
		ReportTimestamp: true,
		Prefix:          "bucketreaper",
	})
)

/*
SetLevel sets the logging level for the default logger.
*/
func SetLevel(level log.Level) {
	DefaultLogger.SetLevel(level)
}

/*
SetOutput redirects the default logger, mostly useful in tests.
*/
func SetOutput(w io.Writer) {
	DefaultLogger.SetOutput(w)
}

/*
ParseLevel converts a level name (debug, info, warn, error) to a log.Level.
Unknown names are rejected rather than silently mapped to info.
*/
func ParseLevel(level string) (log.Level, error) {
	return log.ParseLevel(level)
}

// Debug logs a debug message with optional key/value pairs.
func Debug(msg string, fields ...any) {
	DefaultLogger.Debug(msg, fields...)
}

// Info logs an info message with optional key/value pairs.
func Info(msg string, fields ...any) {
	DefaultLogger.Info(msg, fields...)
}

// Warn logs a warning message with optional key/value pairs.
func Warn(msg string, fields ...any) {
	DefaultLogger.Warn(msg, fields...)
}

// Error logs an error message with optional key/value pairs.
func Error(msg string, fields ...any) {
	DefaultLogger.Error(msg, fields...)
}

/*
Fatal logs a fatal message and exits the process.
*/
func Fatal(msg string, fields ...any) {
	DefaultLogger.Fatal(msg, fields...)
}

/*
WithComponent returns a child logger tagged with the component that emits
the entries, e.g. "reaper" or "s3api".
*/
func WithComponent(component string) *log.Logger {
	return DefaultLogger.With("component", component)
}

/*
WithBucket returns a child of parent tagged with the bucket and region being
processed. Passing a nil parent uses the default logger.
*/
func WithBucket(parent *log.Logger, bucket, region string) *log.Logger {
	if parent == nil {
		parent = DefaultLogger
	}

	if region == "" {
		return parent.With("bucket", bucket)
	}

	return parent.With("bucket", bucket, "region", region)
}
