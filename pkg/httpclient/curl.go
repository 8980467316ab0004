package httpclient

import (
	"sort"

	"github.com/alessio/shellescape"

	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/scenario"
)

// CurlCommand renders a shell-safe curl invocation that
// reproduces the request for s. Credential headers are masked.
func (e *Executor) CurlCommand(s scenario.Scenario) string {
	target, err := e.ResolveURL(s)
	if err != nil {
		target = s.Path()
	}

	args := []string{"curl", "-sS", "-X", s.Method()}

	h := e.Headers(s)
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range h[k] {
			if env.IsSensitiveHeader(k) {
				v = env.RedactAPIKey(v)
			}
			args = append(args, "-H", k+": "+v)
		}
	}

	if !s.Body().IsZero() {
		if body, err := s.Body().Bytes(); err == nil {
			args = append(args, "--data-raw", string(body))
		}
	}

	args = append(args, env.RedactURL(target))
	return shellescape.QuoteCommand(args)
}
