package logging

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewDefaultLogger creates a stdout logger driven by LOG_LEVEL
func NewDefaultLogger() Logger {
	logger, err := NewZapLogger(DefaultLogConfig())
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default zap logger: %v", err))
	}
	return logger
}

// InitGlobalLogger replaces the global logger with one built from level and
// an optional log file. Entries always go to stdout; when file is non-empty
// they are also appended to a rotated file.
func InitGlobalLogger(level, file string) (Logger, error) {
	logger, err := NewZapLogger(LogConfig{
		Level: ParseLevel(level),
		File:  file,
	})
	if err != nil {
		return nil, err
	}

	SetGlobalLogger(logger)

	logger.Info("Logger initialized",
		Field{"level", ParseLevel(level).String()},
		Field{"log_file", file},
	)
	return logger, nil
}

// rotatingFile returns the lumberjack sink used for LOG_FILE
func rotatingFile(name string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   name,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
}

// MustSync flushes any buffered log entries and closes the rotated file.
// This should be called before application exit
func MustSync() {
	logger := GetGlobalLogger()
	if zapLogger, ok := logger.(*ZapAdapter); ok {
		_ = zapLogger.Sync()
		if zapLogger.closer != nil {
			_ = zapLogger.closer.Close()
		}
	}
}

// WithContext is a convenience function to add context to the global logger
func WithContext(ctx context.Context) Logger {
	return GetGlobalLogger().WithContext(ctx)
}

// WithFields is a convenience function to add fields to the global logger
func WithFields(fields ...Field) Logger {
	return GetGlobalLogger().WithFields(fields...)
}

// stdout is swapped in tests
var stdout io.Writer = os.Stdout

// Err creates an error field with key "error"
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// String creates a string field
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an int field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a bool field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with any value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Provider tags an entry with the webhook provider ("github", "stripe").
func Provider(name string) Field { return String("provider", name) }

// EventID tags an entry with a recorded event's ID.
func EventID(id string) Field { return String("event_id", id) }

// DeliveryID tags an entry with the sender's delivery ID.
func DeliveryID(id string) Field { return String("delivery_id", id) }

// EventType tags an entry with the provider's event type, such as "push".
func EventType(t string) Field { return String("event_type", t) }

// Broker tags an entry with a broker name from EVENT_BROKERS.
func Broker(name string) Field { return String("broker", name) }
