package logging

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"jobscout/internal/logging/types"
)

// exitFunc is swapped in tests so Fatal can be exercised
var exitFunc = os.Exit

// sink is shared by a logger and every child derived from it
type sink struct {
	mu       sync.RWMutex
	adapters map[string]types.LogAdapter
	level    LogLevel
}

// MultiLogger fans each entry out to every registered adapter
type MultiLogger struct {
	sink    *sink
	context context.Context
	fields  map[string]interface{}
}

// NewMultiLogger creates a new MultiLogger instance
func NewMultiLogger() *MultiLogger {
	return &MultiLogger{
		sink: &sink{
			adapters: make(map[string]types.LogAdapter),
			level:    InfoLevel,
		},
		context: context.Background(),
		fields:  make(map[string]interface{}),
	}
}

func (l *MultiLogger) Debug(message string, fields ...map[string]interface{}) {
	l.log(DebugLevel, message, fields...)
}

func (l *MultiLogger) Info(message string, fields ...map[string]interface{}) {
	l.log(InfoLevel, message, fields...)
}

func (l *MultiLogger) Warn(message string, fields ...map[string]interface{}) {
	l.log(WarnLevel, message, fields...)
}

func (l *MultiLogger) Error(message string, fields ...map[string]interface{}) {
	l.log(ErrorLevel, message, fields...)
}

// Fatal logs the message, closes every adapter and exits the process
func (l *MultiLogger) Fatal(message string, fields ...map[string]interface{}) {
	l.log(FatalLevel, message, fields...)
	_ = l.Close()
	exitFunc(1)
}

func (l *MultiLogger) log(level LogLevel, message string, fields ...map[string]interface{}) {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()

	if level < l.sink.level {
		return
	}

	entry := &types.LogEntry{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   l.context,
		Fields:    l.mergeFields(fields...),
	}

	for name, adapter := range l.sink.adapters {
		if err := adapter.Write(entry); err != nil {
			// stderr rather than the logger itself to avoid recursion
			fmt.Fprintf(os.Stderr, "logging adapter %s error: %v\n", name, err)
		}
	}
}

func (l *MultiLogger) WithContext(ctx context.Context) Logger {
	return &MultiLogger{sink: l.sink, context: ctx, fields: l.copyFields()}
}

func (l *MultiLogger) WithField(key string, value interface{}) Logger {
	fields := l.copyFields()
	fields[key] = value
	return &MultiLogger{sink: l.sink, context: l.context, fields: fields}
}

func (l *MultiLogger) WithFields(fields map[string]interface{}) Logger {
	return &MultiLogger{sink: l.sink, context: l.context, fields: l.mergeFields(fields)}
}

func (l *MultiLogger) SetLevel(level LogLevel) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

func (l *MultiLogger) GetLevel() LogLevel {
	l.sink.mu.RLock()
	defer l.sink.mu.RUnlock()
	return l.sink.level
}

// AddAdapter registers an adapter; names must be unique
func (l *MultiLogger) AddAdapter(adapter types.LogAdapter) error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	name := adapter.Name()
	if _, exists := l.sink.adapters[name]; exists {
		return fmt.Errorf("adapter %s already exists", name)
	}

	l.sink.adapters[name] = adapter
	return nil
}

// Close closes all adapters
func (l *MultiLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	var failures []string
	for name, adapter := range l.sink.adapters {
		if err := adapter.Close(); err != nil {
			failures = append(failures, fmt.Sprintf("adapter %s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		sort.Strings(failures)
		return fmt.Errorf("failed to close adapters: %s", strings.Join(failures, ", "))
	}
	return nil
}

func (l *MultiLogger) copyFields() map[string]interface{} {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return fields
}

func (l *MultiLogger) mergeFields(additional ...map[string]interface{}) map[string]interface{} {
	fields := l.copyFields()
	for _, fieldMap := range additional {
		for k, v := range fieldMap {
			fields[k] = v
		}
	}
	return fields
}

// ParseLogLevel parses a string log level into LogLevel
func ParseLogLevel(levelStr string) LogLevel {
	switch strings.ToLower(levelStr) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}
