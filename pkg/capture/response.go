// Package capture holds the read-only record of one HTTP
// exchange: the response status, headers, raw body, elapsed time
// and the request that produced it. JSON decoding of the body is
// performed lazily, at most once, and is safe for concurrent
// readers.
package capture

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Response is a captured HTTP response. It must not be modified
// after creation; use New to build one.
type Response struct {
	method     string
	url        string
	statusCode int
	header     http.Header
	body       []byte
	elapsed    time.Duration

	parseOnce sync.Once
	parsed    any
	parseErr  error
}

// New creates a captured response. The header and body are
// copied so later changes by the caller are not observed.
func New(
	method, url string,
	statusCode int,
	header http.Header,
	body []byte,
	elapsed time.Duration,
) *Response {
	return &Response{
		method:     method,
		url:        url,
		statusCode: statusCode,
		header:     header.Clone(),
		body:       append([]byte(nil), body...),
		elapsed:    elapsed,
	}
}

// Method returns the HTTP method of the originating request.
func (r *Response) Method() string { return r.method }

// URL returns the fully resolved request URL.
func (r *Response) URL() string { return r.url }

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.statusCode }

// Elapsed returns the wall-clock time from sending the request
// to receiving the full body.
func (r *Response) Elapsed() time.Duration { return r.elapsed }

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header { return r.header.Clone() }

// HeaderValue returns the first value of the named header using
// case-insensitive matching.
func (r *Response) HeaderValue(name string) string {
	return r.header.Get(name)
}

// Body returns a copy of the raw response body.
func (r *Response) Body() []byte {
	return append([]byte(nil), r.body...)
}

// BodyString returns the raw response body as text.
func (r *Response) BodyString() string {
	return string(r.body)
}

// JSON returns the decoded JSON body. The body is parsed on the
// first call; subsequent calls return the cached result. Numbers
// decode as float64, objects as map[string]any and arrays as
// []any. Callers must treat the returned value as read-only.
func (r *Response) JSON() (any, error) {
	r.parseOnce.Do(func() {
		r.parsed, r.parseErr = decodeJSON(r.body)
	})
	return r.parsed, r.parseErr
}

// MalformedJSONError reports a body that is not valid JSON.
type MalformedJSONError struct {
	Err error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed JSON body: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error { return e.Err }

func decodeJSON(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &MalformedJSONError{Err: fmt.Errorf("empty body")}
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &MalformedJSONError{Err: err}
	}
	if dec.More() {
		return nil, &MalformedJSONError{
			Err: fmt.Errorf("unexpected data after top-level value"),
		}
	}
	return v, nil
}

// Summary is a serializable view of a captured response used in
// reports and verbose logs.
type Summary struct {
	Method     string              `json:"method"`
	URL        string              `json:"url"`
	StatusCode int                 `json:"status_code"`
	ElapsedMS  int64               `json:"elapsed_ms"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       string              `json:"body,omitempty"`
}

// Summarize returns a Summary of the response. Bodies longer
// than maxBody bytes are truncated; a maxBody of zero or less
// keeps the full body.
func (r *Response) Summarize(maxBody int) Summary {
	body := string(r.body)
	if maxBody > 0 && len(body) > maxBody {
		body = body[:maxBody] + "...(truncated)"
	}
	return Summary{
		Method:     r.method,
		URL:        r.url,
		StatusCode: r.statusCode,
		ElapsedMS:  r.elapsed.Milliseconds(),
		Headers:    map[string][]string(r.header.Clone()),
		Body:       body,
	}
}
