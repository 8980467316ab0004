package logging

import (
	"strings"

	"digital.vasic.apisuite/pkg/env"
)

// RedactingLogger is a decorator that masks configured secrets
// (API keys, tokens) in messages, string field values, URLs and
// headers before passing entries to the inner logger.
type RedactingLogger struct {
	inner   Logger
	secrets []string
}

// NewRedactingLogger creates a logger that redacts the given
// secrets. Secrets of four characters or fewer are ignored.
func NewRedactingLogger(
	inner Logger,
	secrets ...string,
) *RedactingLogger {
	kept := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if len(s) > 4 {
			kept = append(kept, s)
		}
	}
	return &RedactingLogger{inner: inner, secrets: kept}
}

func (r *RedactingLogger) redact(msg string) string {
	for _, secret := range r.secrets {
		msg = strings.ReplaceAll(msg, secret, env.RedactAPIKey(secret))
	}
	return msg
}

func (r *RedactingLogger) redactFields(fields []Field) []Field {
	result := make([]Field, len(fields))
	for i, f := range fields {
		if str, ok := f.Value.(string); ok {
			f.Value = r.redact(str)
		}
		result[i] = f
	}
	return result
}

// Info logs a redacted informational message.
func (r *RedactingLogger) Info(msg string, fields ...Field) {
	r.inner.Info(r.redact(msg), r.redactFields(fields)...)
}

// Warn logs a redacted warning message.
func (r *RedactingLogger) Warn(msg string, fields ...Field) {
	r.inner.Warn(r.redact(msg), r.redactFields(fields)...)
}

// Error logs a redacted error message.
func (r *RedactingLogger) Error(msg string, fields ...Field) {
	r.inner.Error(r.redact(msg), r.redactFields(fields)...)
}

// Debug logs a redacted debug message.
func (r *RedactingLogger) Debug(msg string, fields ...Field) {
	r.inner.Debug(r.redact(msg), r.redactFields(fields)...)
}

// WithFields returns a RedactingLogger wrapping a new inner
// logger with the given fields applied.
func (r *RedactingLogger) WithFields(fields ...Field) Logger {
	return &RedactingLogger{
		inner:   r.inner.WithFields(r.redactFields(fields)...),
		secrets: r.secrets,
	}
}

// LogAPIRequest logs a request with redacted URL, headers and
// body.
func (r *RedactingLogger) LogAPIRequest(request APIRequestLog) {
	request.URL = r.redact(env.RedactURL(request.URL))
	request.Headers = env.RedactHeaders(request.Headers)
	request.Body = r.redact(request.Body)
	r.inner.LogAPIRequest(request)
}

// LogAPIResponse logs a response with redacted headers and body
// preview.
func (r *RedactingLogger) LogAPIResponse(response APIResponseLog) {
	response.Headers = env.RedactHeaders(response.Headers)
	response.BodyPreview = r.redact(response.BodyPreview)
	r.inner.LogAPIResponse(response)
}

// Close closes the inner logger.
func (r *RedactingLogger) Close() error {
	return r.inner.Close()
}
