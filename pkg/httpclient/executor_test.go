package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.apisuite/pkg/logging"
	"digital.vasic.apisuite/pkg/scenario"
)

func newExecutor(t *testing.T, baseURL string, opts ...Option) *Executor {
	t.Helper()
	e, err := NewExecutor(Config{BaseURL: baseURL}, opts...)
	require.NoError(t, err)
	return e
}

func TestNewExecutor_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{BaseURL: "https://reqres.in/"}, ""},
		{"empty", Config{}, "base URL is required"},
		{"scheme", Config{BaseURL: "ftp://reqres.in"}, "http or https"},
		{"host", Config{BaseURL: "http://"}, "no host"},
		{"timeout", Config{BaseURL: "http://x", Timeout: -time.Second}, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewExecutor(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "https://reqres.in", e.BaseURL())
		})
	}
}

func TestExecutor_ResolveURL(t *testing.T) {
	e := newExecutor(t, "https://reqres.in/")

	tests := []struct {
		name string
		s    scenario.Scenario
		want string
	}{
		{
			name: "joins with single slash",
			s:    scenario.New("a").Get("/api/users/2").MustBuild(),
			want: "https://reqres.in/api/users/2",
		},
		{
			name: "relative without slash",
			s:    scenario.New("b").Get("api/users").MustBuild(),
			want: "https://reqres.in/api/users",
		},
		{
			name: "ordered encoded query",
			s: scenario.New("c").Get("/api/users").
				Query("page", "2").Query("a b", "x&y").MustBuild(),
			want: "https://reqres.in/api/users?page=2&a+b=x%26y",
		},
		{
			name: "keeps existing query",
			s: scenario.New("d").Get("/api/users?delay=3").
				Query("page", "1").MustBuild(),
			want: "https://reqres.in/api/users?delay=3&page=1",
		},
		{
			name: "absolute override",
			s:    scenario.New("e").Get("http://other.test/x").MustBuild(),
			want: "http://other.test/x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ResolveURL(tt.s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecutor_Headers(t *testing.T) {
	e, err := NewExecutor(Config{
		BaseURL: "https://reqres.in",
		Headers: http.Header{
			"X-Api-Key": {"reqres-free-v1"},
			"Accept":    {"application/json"},
		},
	})
	require.NoError(t, err)

	t.Run("scenario overrides defaults", func(t *testing.T) {
		s := scenario.New("h").Get("/api/users").
			Header("Accept", "text/plain").MustBuild()
		h := e.Headers(s)
		assert.Equal(t, []string{"text/plain"}, h.Values("Accept"))
		assert.Equal(t, "reqres-free-v1", h.Get("X-Api-Key"))
		assert.Empty(t, h.Get("Content-Type"))
	})

	t.Run("json content type added for body", func(t *testing.T) {
		s := scenario.New("b").Post("/api/users").
			JSON(map[string]any{"name": "morpheus"}).MustBuild()
		assert.Equal(t, "application/json", e.Headers(s).Get("Content-Type"))
	})

	t.Run("explicit content type kept", func(t *testing.T) {
		s := scenario.New("r").Post("/api/users").
			Header("Content-Type", "text/plain").Raw("hi").MustBuild()
		assert.Equal(t, "text/plain", e.Headers(s).Get("Content-Type"))
	})
}

func TestExecutor_Execute_CapturesResponse(t *testing.T) {
	headers := http.Header{"X-Served-By": {"fake"}}
	handler := httphelpers.HandlerWithJSONResponse(
		map[string]any{"data": map[string]any{"id": 2}}, headers,
	)
	recorder, requests := httphelpers.RecordingHandler(handler)

	httphelpers.WithServer(recorder, func(server *httptest.Server) {
		e := newExecutor(t, server.URL)
		s := scenario.New("single user").Get("/api/users/2").
			Query("verbose", "1").MustBuild()

		resp, err := e.Execute(context.Background(), s)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, http.MethodGet, resp.Method())
		assert.Equal(t, server.URL+"/api/users/2?verbose=1", resp.URL())
		assert.Equal(t, "fake", resp.HeaderValue("X-Served-By"))
		assert.GreaterOrEqual(t, resp.Elapsed(), time.Duration(0))

		doc, err := resp.JSON()
		require.NoError(t, err)
		assert.Equal(t, float64(2), doc.(map[string]any)["data"].(map[string]any)["id"])

		req := <-requests
		assert.Equal(t, "/api/users/2", req.Request.URL.Path)
		assert.Equal(t, "1", req.Request.URL.Query().Get("verbose"))
	})
}

func TestExecutor_Execute_SendsJSONBody(t *testing.T) {
	handler := httphelpers.HandlerWithResponse(
		http.StatusCreated,
		http.Header{"Content-Type": {"application/json"}},
		[]byte(`{"id":"7"}`),
	)
	recorder, requests := httphelpers.RecordingHandler(handler)

	httphelpers.WithServer(recorder, func(server *httptest.Server) {
		e := newExecutor(t, server.URL)
		s := scenario.New("create").Post("/api/users").
			JSON(map[string]any{"name": "morpheus", "job": "leader"}).
			MustBuild()

		resp, err := e.Execute(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode())

		req := <-requests
		assert.Equal(t, http.MethodPost, req.Request.Method)
		assert.Equal(t, "application/json", req.Request.Header.Get("Content-Type"))
		var sent map[string]any
		require.NoError(t, json.Unmarshal(req.Body, &sent))
		assert.Equal(t, "morpheus", sent["name"])
	})
}

func TestExecutor_Execute_ErrorStatusIsResponse(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(404), func(server *httptest.Server) {
		e := newExecutor(t, server.URL)
		resp, err := e.Execute(context.Background(),
			scenario.New("missing").Get("/api/users/23").MustBuild())
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	})
}

func TestExecutor_Execute_TransportError(t *testing.T) {
	server := httptest.NewServer(httphelpers.HandlerWithStatus(200))
	url := server.URL
	server.Close()

	e := newExecutor(t, url)
	_, err := e.Execute(context.Background(),
		scenario.New("down").Get("/api/users").MustBuild())
	require.Error(t, err)

	var terr *TransportError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, http.MethodGet, terr.Method)
	assert.Equal(t, url+"/api/users", terr.URL)
	assert.False(t, terr.Timeout())
	assert.True(t, IsTransportError(err))
}

func TestExecutor_Execute_Timeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	httphelpers.WithServer(slow, func(server *httptest.Server) {
		e, err := NewExecutor(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond})
		require.NoError(t, err)

		_, err = e.Execute(context.Background(),
			scenario.New("slow").Get("/api/users").MustBuild())
		var terr *TransportError
		require.True(t, errors.As(err, &terr))
		assert.True(t, terr.Timeout())
	})
}

func TestExecutor_Execute_ContextCancelled(t *testing.T) {
	httphelpers.WithServer(httphelpers.HandlerWithStatus(200), func(server *httptest.Server) {
		e := newExecutor(t, server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.Execute(ctx, scenario.New("c").Get("/").MustBuild())
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestExecutor_Execute_LogsExchange(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewConsoleLoggerTo(&buf, true, false)

	httphelpers.WithServer(httphelpers.HandlerWithStatus(204), func(server *httptest.Server) {
		e, err := NewExecutor(
			Config{BaseURL: server.URL, Headers: http.Header{"X-Api-Key": {"reqres-free-v1"}}},
			WithLogger(logger),
		)
		require.NoError(t, err)

		_, err = e.Execute(context.Background(),
			scenario.New("delete").Delete("/api/users/2").MustBuild())
		require.NoError(t, err)
	})

	out := buf.String()
	assert.Contains(t, out, "--> DELETE ")
	assert.Contains(t, out, "<-- 204")
	assert.NotContains(t, out, "reqres-free-v1")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview([]byte("abc"), 10))
	assert.Equal(t, "ab...(truncated)", preview([]byte("abc"), 2))
	assert.Equal(t, strings.Repeat("x", 5), preview([]byte("xxxxx"), 0))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestExecutor_WithHTTPClient(t *testing.T) {
	var seen *http.Request
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return &http.Response{
			StatusCode: http.StatusCreated,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"id":"42"}`)),
			Request:    r,
		}, nil
	})}

	e := newExecutor(t, "https://reqres.in", WithHTTPClient(client))
	resp, err := e.Execute(context.Background(),
		scenario.New("create").Post("/api/users").JSON(map[string]string{"name": "John Doe"}).MustBuild())
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "https://reqres.in/api/users", seen.URL.String())
	assert.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.Equal(t, `{"id":"42"}`, resp.BodyString())
}

func TestExecutor_WithHTTPClient_NilKeepsDefault(t *testing.T) {
	e := newExecutor(t, "https://reqres.in", WithHTTPClient(nil))
	assert.NotNil(t, e.httpClient)
}

func TestExecutor_WithPreviewLimit(t *testing.T) {
	body := map[string]any{"data": strings.Repeat("x", 64)}

	tests := []struct {
		name      string
		limit     int
		truncated bool
	}{
		{"short limit truncates", 10, true},
		{"zero logs whole body", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewConsoleLoggerTo(&buf, true, false)

			httphelpers.WithServer(httphelpers.HandlerWithJSONResponse(body, nil), func(server *httptest.Server) {
				e := newExecutor(t, server.URL, WithLogger(logger), WithPreviewLimit(tt.limit))
				_, err := e.Execute(context.Background(), scenario.New("u").Get("/api/users").MustBuild())
				require.NoError(t, err)
			})

			out := buf.String()
			if tt.truncated {
				assert.Contains(t, out, "...(truncated)")
				assert.NotContains(t, out, strings.Repeat("x", 64))
			} else {
				assert.NotContains(t, out, "...(truncated)")
				assert.Contains(t, out, strings.Repeat("x", 64))
			}
		})
	}
}
