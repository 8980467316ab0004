// Package httpclient sends scenario requests over HTTP and
// captures the full response with its wall-clock timing.
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"digital.vasic.apisuite/pkg/capture"
	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/scenario"
)

// DefaultPreviewLimit bounds the body preview written to the
// response log.
const DefaultPreviewLimit = 2048

// Config holds the settings shared by every request an
// Executor sends.
type Config struct {
	// BaseURL is joined with relative scenario paths.
	BaseURL string

	// Timeout bounds each exchange. Zero means no limit.
	Timeout time.Duration

	// Headers are sent with every request. Scenario headers
	// replace defaults with the same name.
	Headers http.Header
}

// Option configures an Executor via functional options.
type Option func(*Executor)

// WithLogger routes request and response logs to l.
func WithLogger(l logging.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithHTTPClient replaces the underlying http.Client. The
// configured Timeout is not applied to a supplied client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.httpClient = c
		}
	}
}

// WithPreviewLimit overrides the logged body preview size. Zero
// or less logs whole bodies.
func WithPreviewLimit(n int) Option {
	return func(e *Executor) { e.previewLimit = n }
}

// Executor turns a scenario into one HTTP exchange. It holds
// only read-only configuration, so one Executor may serve many
// goroutines.
type Executor struct {
	baseURL      string
	headers      http.Header
	httpClient   *http.Client
	logger       logging.Logger
	previewLimit int
}

// NewExecutor validates cfg and creates an Executor.
func NewExecutor(cfg Config, opts ...Option) (*Executor, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf(
			"base URL must use http or https: %s", base,
		)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base URL has no host: %s", base)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative: %s", cfg.Timeout)
	}

	headers := http.Header{}
	for k, vs := range cfg.Headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}

	e := &Executor{
		baseURL:      strings.TrimRight(base, "/"),
		headers:      headers,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logging.NullLogger{},
		previewLimit: DefaultPreviewLimit,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// BaseURL returns the configured base URL without a trailing
// slash.
func (e *Executor) BaseURL() string {
	return e.baseURL
}

// ResolveURL returns the absolute request URL for s: its path
// joined with the base URL (or used as-is when it carries a
// scheme) followed by its ordered, encoded query parameters.
func (e *Executor) ResolveURL(s scenario.Scenario) (string, error) {
	path := s.Path()
	var target string
	if isAbsolute(path) {
		target = path
	} else {
		rel := strings.TrimLeft(path, "/")
		if rel == "" {
			target = e.baseURL
		} else {
			target = e.baseURL + "/" + rel
		}
	}

	if q := encodeQuery(s.Query()); q != "" {
		switch {
		case strings.HasSuffix(target, "?"), strings.HasSuffix(target, "&"):
			target += q
		case strings.Contains(target, "?"):
			target += "&" + q
		default:
			target += "?" + q
		}
	}

	if _, err := url.Parse(target); err != nil {
		return "", fmt.Errorf("invalid request URL: %w", err)
	}
	return target, nil
}

func isAbsolute(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// encodeQuery keeps declaration order, which url.Values.Encode
// would sort away.
func encodeQuery(params []scenario.QueryParam) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts,
			url.QueryEscape(p.Key)+"="+url.QueryEscape(p.Value))
	}
	return strings.Join(parts, "&")
}

// Headers returns the effective request headers for s.
func (e *Executor) Headers(s scenario.Scenario) http.Header {
	h := e.headers.Clone()
	for k, vs := range s.Header() {
		h.Del(k)
		for _, v := range vs {
			h.Add(k, v)
		}
	}
	if !s.Body().IsZero() && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "application/json")
	}
	return h
}

// Execute sends the request described by s and captures the
// response. HTTP error statuses are ordinary responses; only a
// failure to complete the exchange returns an error, as a
// *TransportError. Requests are never retried.
func (e *Executor) Execute(
	ctx context.Context,
	s scenario.Scenario,
) (*capture.Response, error) {
	target, err := e.ResolveURL(s)
	if err != nil {
		return nil, err
	}

	var (
		payload []byte
		reader  io.Reader
	)
	if !s.Body().IsZero() {
		payload, err = s.Body().Bytes()
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, s.Method(), target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header = e.Headers(s)

	requestID := uuid.New().String()
	e.logger.LogAPIRequest(logging.APIRequestLog{
		Timestamp:  time.Now().Format(time.RFC3339Nano),
		RequestID:  requestID,
		Scenario:   s.Name(),
		Method:     s.Method(),
		URL:        env.RedactURL(target),
		Headers:    env.FlattenHeader(req.Header),
		Body:       string(payload),
		BodyLength: len(payload),
	})

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, e.transportFailure(s, target, requestID, start, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, e.transportFailure(
			s, target, requestID, start,
			fmt.Errorf("read response: %w", err),
		)
	}

	e.logger.LogAPIResponse(logging.APIResponseLog{
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		RequestID:      requestID,
		Scenario:       s.Name(),
		StatusCode:     resp.StatusCode,
		Headers:        env.FlattenHeader(resp.Header),
		BodyPreview:    preview(data, e.previewLimit),
		BodyLength:     len(data),
		ResponseTimeMs: elapsed.Milliseconds(),
	})

	return capture.New(
		s.Method(), target, resp.StatusCode, resp.Header, data, elapsed,
	), nil
}

func (e *Executor) transportFailure(
	s scenario.Scenario,
	target, requestID string,
	start time.Time,
	err error,
) error {
	terr := &TransportError{Method: s.Method(), URL: target, Err: err}
	e.logger.LogAPIResponse(logging.APIResponseLog{
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		RequestID:      requestID,
		Scenario:       s.Name(),
		ResponseTimeMs: time.Since(start).Milliseconds(),
		Error:          terr.Error(),
	})
	return terr
}

func preview(body []byte, limit int) string {
	if limit <= 0 || len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "...(truncated)"
}

// TransportError reports an exchange that produced no HTTP
// response: DNS, connection, TLS, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf(
		"%s %s: %v", e.Method, env.RedactURL(e.URL), e.Err,
	)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the exchange was cut off by a
// deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsTransportError reports whether err is or wraps a
// *TransportError.
func IsTransportError(err error) bool {
	var terr *TransportError
	return errors.As(err, &terr)
}
