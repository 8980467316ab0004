package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// jsonMarshal is a variable for dependency injection in tests.
var jsonMarshal = json.Marshal

// Log file names created by SetupLogging.
const (
	RunLogFile      = "apisuite.log"
	RequestLogFile  = "api_requests.log"
	ResponseLogFile = "api_responses.log"
)

// LogEntry represents a single JSON log entry.
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// LoggerConfig configures the JSONLogger.
type LoggerConfig struct {
	OutputPath     string
	APIRequestLog  string
	APIResponseLog string
	Level          LogLevel
	Verbose        bool
	Fields         map[string]any
}

// sink holds the writers shared by a logger and the children
// created with WithFields.
type sink struct {
	mu             sync.Mutex
	output         io.Writer
	apiRequestLog  io.Writer
	apiResponseLog io.Writer
	closed         bool
}

// JSONLogger implements Logger with JSON Lines output.
type JSONLogger struct {
	sink    *sink
	level   LogLevel
	fields  map[string]any
	verbose bool
}

// NewJSONLogger creates a new JSON logger. If OutputPath is
// empty, logs are written to stdout.
func NewJSONLogger(config LoggerConfig) (*JSONLogger, error) {
	logger := &JSONLogger{
		sink:    &sink{},
		level:   config.Level,
		verbose: config.Verbose,
		fields:  config.Fields,
	}

	if logger.fields == nil {
		logger.fields = make(map[string]any)
	}

	if config.OutputPath != "" {
		file, err := openLog(config.OutputPath)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger.sink.output = file
	} else {
		logger.sink.output = os.Stdout
	}

	if config.APIRequestLog != "" {
		file, err := openLog(config.APIRequestLog)
		if err != nil {
			return nil, fmt.Errorf("open API request log: %w", err)
		}
		logger.sink.apiRequestLog = file
	}

	if config.APIResponseLog != "" {
		file, err := openLog(config.APIResponseLog)
		if err != nil {
			return nil, fmt.Errorf("open API response log: %w", err)
		}
		logger.sink.apiResponseLog = file
	}

	return logger, nil
}

// NewJSONLoggerTo creates a JSON logger writing entries to w.
// Request and response logs are discarded.
func NewJSONLoggerTo(w io.Writer, level LogLevel) *JSONLogger {
	return &JSONLogger{
		sink:    &sink{output: w},
		level:   level,
		verbose: level == LevelDebug,
		fields:  make(map[string]any),
	}
}

func openLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

func (l *JSONLogger) log(
	level LogLevel, msg string, fields ...Field,
) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   msg,
		Fields:    make(map[string]any, len(l.fields)+len(fields)),
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	data, err := jsonMarshal(entry)
	if err != nil {
		return
	}
	l.sink.write(l.sink.output, data)
}

func (s *sink) write(w io.Writer, data []byte) {
	if w == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fmt.Fprintln(w, string(data))
}

// Info logs an informational message.
func (l *JSONLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *JSONLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *JSONLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields...)
}

// Debug logs a debug message only if verbose is enabled.
func (l *JSONLogger) Debug(msg string, fields ...Field) {
	if l.verbose {
		l.log(LevelDebug, msg, fields...)
	}
}

// WithFields returns a new Logger with additional default
// fields. The child shares the parent's writers.
func (l *JSONLogger) WithFields(fields ...Field) Logger {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		newFields[k] = v
	}
	for _, f := range fields {
		newFields[f.Key] = f.Value
	}

	return &JSONLogger{
		sink:    l.sink,
		level:   l.level,
		verbose: l.verbose,
		fields:  newFields,
	}
}

// LogAPIRequest logs a request to the dedicated request log.
func (l *JSONLogger) LogAPIRequest(request APIRequestLog) {
	data, err := jsonMarshal(request)
	if err != nil {
		return
	}
	l.sink.write(l.sink.apiRequestLog, data)
}

// LogAPIResponse logs a response to the dedicated response log.
func (l *JSONLogger) LogAPIResponse(response APIResponseLog) {
	data, err := jsonMarshal(response)
	if err != nil {
		return
	}
	l.sink.write(l.sink.apiResponseLog, data)
}

// Close flushes and closes all underlying files. Calling Close
// on a child closes the shared writers too.
func (l *JSONLogger) Close() error {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, w := range []io.Writer{s.output, s.apiRequestLog, s.apiResponseLog} {
		if w == os.Stdout || w == os.Stderr {
			continue
		}
		if closer, ok := w.(*os.File); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetupLogging creates a JSON logger for a run in the given
// logs directory: the run log plus request and response logs.
func SetupLogging(
	logsDir string,
	verbose bool,
) (*JSONLogger, error) {
	config := LoggerConfig{
		OutputPath:     filepath.Join(logsDir, RunLogFile),
		APIRequestLog:  filepath.Join(logsDir, RequestLogFile),
		APIResponseLog: filepath.Join(logsDir, ResponseLogFile),
		Level:          LevelInfo,
		Verbose:        verbose,
	}

	if verbose {
		config.Level = LevelDebug
	}

	return NewJSONLogger(config)
}
