// Package config holds the run configuration: defaults, a YAML
// file, environment overrides and validation. CLI flags are
// applied on top by the cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"digital.vasic.apisuite/pkg/env"
	"digital.vasic.apisuite/pkg/runner"
)

// Defaults.
const (
	DefaultBaseURL     = "https://reqres.in"
	DefaultTimeout     = 30 * time.Second
	DefaultConcurrency = 1
	DefaultReportDir   = "reports"
	DefaultFile        = "apisuite.yaml"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "x-api-key"

// Config is the complete run configuration.
type Config struct {
	// BaseURL is prepended to every scenario path.
	BaseURL string `yaml:"base_url" json:"base_url"`

	// Timeout bounds each request. Zero disables the bound.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Concurrency is the number of scenarios run at once.
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// ReportDir receives the Markdown summary and run logs.
	ReportDir string `yaml:"report_dir" json:"report_dir"`

	// JUnit and JSON are report file paths. Empty disables
	// the report.
	JUnit string `yaml:"junit,omitempty" json:"junit,omitempty"`
	JSON  string `yaml:"json,omitempty" json:"json,omitempty"`

	// History is a JSON-lines file each run appends to.
	History string `yaml:"history,omitempty" json:"history,omitempty"`

	// Run and Skip are scenario filter patterns.
	Run  []string `yaml:"run,omitempty" json:"run,omitempty"`
	Skip []string `yaml:"skip,omitempty" json:"skip,omitempty"`

	// Scenarios are glob patterns of scenario files loaded in
	// addition to the built-in suite.
	Scenarios []string `yaml:"scenarios,omitempty" json:"scenarios,omitempty"`

	// Verbose enables debug logging and response summaries.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// MonitorAddr, when set, serves the live dashboard.
	MonitorAddr string `yaml:"monitor_addr,omitempty" json:"monitor_addr,omitempty"`

	// APIKey is read from the environment only.
	APIKey string `yaml:"-" json:"-"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		ReportDir:   DefaultReportDir,
		Headers:     make(map[string]string),
	}
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} and ${VAR:-default} references
// using the loader.
func ExpandEnvVars(input string, loader env.Loader) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if v := loader.Get(sub[1]); v != "" {
			return v
		}
		return sub[2]
	})
}

// Load reads a YAML config file over the defaults. Unknown keys
// are rejected.
func Load(path string, loader env.Loader) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data, loader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadOptional is like Load but returns the defaults when path
// does not exist.
func LoadOptional(path string, loader env.Loader) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path, loader)
}

// Parse decodes YAML config bytes over the defaults after
// expanding environment references.
func Parse(data []byte, loader env.Loader) (*Config, error) {
	cfg := Default()
	expanded := ExpandEnvVars(string(data), loader)
	if strings.TrimSpace(expanded) == "" {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	return cfg, nil
}

// ApplyEnv overrides the base URL, API key and timeout from
// APISUITE_* variables.
func (c *Config) ApplyEnv(loader env.Loader) error {
	if v := strings.TrimSpace(loader.Get(env.BaseURLVar)); v != "" {
		c.BaseURL = v
	}
	if v := loader.GetAPIKey(""); v != "" {
		c.APIKey = v
	}
	d, ok, err := loader.GetDuration(env.TimeoutVar)
	if err != nil {
		return err
	}
	if ok {
		c.Timeout = d
	}
	return nil
}

// Validate checks the configuration and joins every problem
// found.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("base_url is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("base_url: %w", err))
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url must be an absolute http(s) URL: %s", c.BaseURL))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %s", c.Timeout))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1: %d", c.Concurrency))
	}
	if _, err := c.Filters(); err != nil {
		errs = append(errs, err)
	}
	for _, p := range c.Scenarios {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, errors.New("scenarios: empty pattern"))
		}
	}
	for name := range c.Headers {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("headers: empty header name"))
		}
	}
	return errors.Join(errs...)
}

// Filters compiles the run and skip patterns.
func (c *Config) Filters() (runner.Filters, error) {
	run, err := runner.ParseRegexList(c.Run...)
	if err != nil {
		return runner.Filters{}, fmt.Errorf("run: %w", err)
	}
	skip, err := runner.ParseRegexList(c.Skip...)
	if err != nil {
		return runner.Filters{}, fmt.Errorf("skip: %w", err)
	}
	return runner.Filters{Run: run, Skip: skip}, nil
}

// HTTPHeaders returns the default request headers, including
// the API key when one is configured.
func (c *Config) HTTPHeaders() http.Header {
	h := http.Header{}
	keys := make([]string, 0, len(c.Headers))
	for k := range c.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Set(k, c.Headers[k])
	}
	if c.APIKey != "" {
		h.Set(APIKeyHeader, c.APIKey)
	}
	return h
}

// Secrets lists values that must never appear in logs: the API
// key and the values of sensitive headers.
func (c *Config) Secrets() []string {
	var out []string
	if c.APIKey != "" {
		out = append(out, c.APIKey)
	}
	for k, v := range c.Headers {
		if env.IsSensitiveHeader(k) && v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// LogDir is where run logs are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.ReportDir, "logs")
}

// Redacted returns a copy safe for printing.
func (c *Config) Redacted() Config {
	out := *c
	out.BaseURL = env.RedactURL(c.BaseURL)
	out.APIKey = env.RedactAPIKey(c.APIKey)
	out.Headers = env.RedactHeaders(c.Headers)
	return out
}
