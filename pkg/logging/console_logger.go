package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ConsoleLogger provides colored, human-oriented console output.
type ConsoleLogger struct {
	mu      *sync.Mutex
	output  io.Writer
	verbose bool
	fields  map[string]any
	palette palette
}

type palette struct {
	gray   *color.Color
	blue   *color.Color
	yellow *color.Color
	red    *color.Color
	green  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		gray:   mk(color.FgHiBlack),
		blue:   mk(color.FgBlue),
		yellow: mk(color.FgYellow),
		red:    mk(color.FgRed),
		green:  mk(color.FgGreen),
	}
}

// NewConsoleLogger creates a console logger writing to stdout.
// When verbose is true, debug messages are emitted. Colors
// follow fatih/color's terminal detection.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stdout, verbose, !color.NoColor)
}

// NewConsoleLoggerTo creates a console logger writing to w with
// colors explicitly enabled or disabled.
func NewConsoleLoggerTo(
	w io.Writer,
	verbose bool,
	colored bool,
) *ConsoleLogger {
	return &ConsoleLogger{
		mu:      &sync.Mutex{},
		output:  w,
		verbose: verbose,
		fields:  make(map[string]any),
		palette: newPalette(colored),
	}
}

func (c *ConsoleLogger) log(
	level LogLevel, levelColor *color.Color, msg string, fields ...Field,
) {
	all := make([]Field, 0, len(c.fields)+len(fields))
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		all = append(all, Field{Key: k, Value: c.fields[k]})
	}
	all = append(all, fields...)

	var fieldStr string
	if len(all) > 0 {
		parts := make([]string, 0, len(all))
		for _, f := range all {
			parts = append(parts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		fieldStr = " " + c.palette.gray.Sprintf(
			"{%s}", strings.Join(parts, ", "),
		)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(
		c.output, "%s [%s] %s%s\n",
		c.palette.gray.Sprint(time.Now().Format("15:04:05")),
		levelColor.Sprintf("%-5s", level.String()),
		msg, fieldStr,
	)
}

// Info logs an informational message.
func (c *ConsoleLogger) Info(msg string, fields ...Field) {
	c.log(LevelInfo, c.palette.blue, msg, fields...)
}

// Warn logs a warning message.
func (c *ConsoleLogger) Warn(msg string, fields ...Field) {
	c.log(LevelWarn, c.palette.yellow, msg, fields...)
}

// Error logs an error message.
func (c *ConsoleLogger) Error(msg string, fields ...Field) {
	c.log(LevelError, c.palette.red, msg, fields...)
}

// Debug logs a debug message only if verbose is enabled.
func (c *ConsoleLogger) Debug(msg string, fields ...Field) {
	if c.verbose {
		c.log(LevelDebug, c.palette.gray, msg, fields...)
	}
}

// WithFields returns a new Logger with additional default
// fields. The new logger shares the output and its lock.
func (c *ConsoleLogger) WithFields(
	fields ...Field,
) Logger {
	newFields := make(map[string]any, len(c.fields)+len(fields))
	for k, v := range c.fields {
		newFields[k] = v
	}
	for _, f := range fields {
		newFields[f.Key] = f.Value
	}

	return &ConsoleLogger{
		mu:      c.mu,
		output:  c.output,
		verbose: c.verbose,
		fields:  newFields,
		palette: c.palette,
	}
}

// LogAPIRequest prints a one-line request summary in verbose
// mode.
func (c *ConsoleLogger) LogAPIRequest(
	request APIRequestLog,
) {
	c.Debug(fmt.Sprintf("--> %s %s", request.Method, request.URL),
		Field{Key: "request_id", Value: request.RequestID},
		Field{Key: "body_length", Value: request.BodyLength},
	)
}

// LogAPIResponse prints a one-line response summary in verbose
// mode, followed by the body preview. The status is colored by
// class.
func (c *ConsoleLogger) LogAPIResponse(
	response APIResponseLog,
) {
	if !c.verbose {
		return
	}
	statusColor := c.palette.green
	switch {
	case response.StatusCode >= 500:
		statusColor = c.palette.red
	case response.StatusCode >= 400:
		statusColor = c.palette.yellow
	}
	c.Debug(
		fmt.Sprintf("<-- %s (%dms)",
			statusColor.Sprint(response.StatusCode),
			response.ResponseTimeMs),
		Field{Key: "request_id", Value: response.RequestID},
		Field{Key: "body_length", Value: response.BodyLength},
	)
	if response.BodyPreview != "" {
		c.mu.Lock()
		fmt.Fprintf(c.output, "    %s\n", response.BodyPreview)
		c.mu.Unlock()
	}
}

// Close is a no-op for ConsoleLogger.
func (c *ConsoleLogger) Close() error {
	return nil
}
