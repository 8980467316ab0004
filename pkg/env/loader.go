// Package env loads environment variables from .env files and
// the process environment, and provides helpers for redacting
// credentials before they reach logs or reports.
package env

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Well-known variables read by the suite.
const (
	BaseURLVar = "APISUITE_BASE_URL"
	APIKeyVar  = "APISUITE_API_KEY"
	TimeoutVar = "APISUITE_TIMEOUT"
)

// Loader defines the interface for environment variable management.
type Loader interface {
	// Load reads environment variables from a .env file.
	Load(filepath string) error
	// Get retrieves an environment variable value.
	Get(key string) string
	// GetRequired retrieves a required environment variable or returns error.
	GetRequired(key string) (string, error)
	// GetWithDefault retrieves an environment variable with a default fallback.
	GetWithDefault(key, defaultValue string) string
	// GetDuration parses a duration variable ("10s", or a plain
	// number of seconds).
	GetDuration(key string) (time.Duration, bool, error)
	// GetAPIKey retrieves the API key for a named target.
	GetAPIKey(target string) string
	// Set sets an environment variable.
	Set(key, value string) error
	// All returns all loaded environment variables.
	All() map[string]string
}

// DefaultLoader implements Loader with .env file support and
// per-target API key mappings.
type DefaultLoader struct {
	mu       sync.RWMutex
	vars     map[string]string
	loaded   bool
	mappings map[string]string // target name -> env var name
}

// NewLoader creates a new DefaultLoader with the standard
// target mappings.
func NewLoader() *DefaultLoader {
	return &DefaultLoader{
		vars: make(map[string]string),
		mappings: map[string]string{
			"":         APIKeyVar,
			"apisuite": APIKeyVar,
			"reqres":   "REQRES_API_KEY",
		},
	}
}

// NewLoaderWithMappings creates a DefaultLoader with additional
// target-to-variable mappings.
func NewLoaderWithMappings(mappings map[string]string) *DefaultLoader {
	l := NewLoader()
	for k, v := range mappings {
		l.mappings[strings.ToLower(k)] = v
	}
	return l
}

func (l *DefaultLoader) Load(filepath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(filepath)
	if err != nil {
		return fmt.Errorf("open env file %s: %w", filepath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		// Remove surrounding quotes
		value = strings.Trim(value, `"'`)
		l.vars[key] = value
	}

	l.loaded = true
	return scanner.Err()
}

// LoadIfExists loads filepath when it exists. A missing file is
// not an error.
func (l *DefaultLoader) LoadIfExists(filepath string) error {
	err := l.Load(filepath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (l *DefaultLoader) Get(key string) string {
	// OS env takes precedence
	if v := os.Getenv(key); v != "" {
		return v
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.vars[key]
}

func (l *DefaultLoader) GetRequired(key string) (string, error) {
	v := l.Get(key)
	if v == "" {
		return "", fmt.Errorf("required environment variable %s is not set", key)
	}
	return v, nil
}

func (l *DefaultLoader) GetWithDefault(key, defaultValue string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// GetDuration reports the parsed value and whether the variable
// was set.
func (l *DefaultLoader) GetDuration(key string) (time.Duration, bool, error) {
	v := strings.TrimSpace(l.Get(key))
	if v == "" {
		return 0, false, nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), true, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, true, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, true, nil
}

func (l *DefaultLoader) GetAPIKey(target string) string {
	l.mu.RLock()
	envVar, ok := l.mappings[strings.ToLower(target)]
	l.mu.RUnlock()
	if !ok {
		// Try uppercase target + _API_KEY
		envVar = strings.ToUpper(target) + "_API_KEY"
	}
	return l.Get(envVar)
}

func (l *DefaultLoader) Set(key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vars[key] = value
	return os.Setenv(key, value)
}

func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		result[k] = v
	}
	return result
}
