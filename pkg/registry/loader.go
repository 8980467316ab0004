package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"digital.vasic.apisuite/pkg/scenario"
)

// File is the on-disk structure of a scenario file (JSON or
// YAML).
type File struct {
	Version string `json:"version,omitempty" yaml:"version,omitempty"`

	// Category is applied to scenarios that do not set one.
	Category  string                `json:"category,omitempty" yaml:"category,omitempty"`
	Scenarios []scenario.Definition `json:"scenarios" yaml:"scenarios"`
}

// Format is a scenario file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension. Unknown
// extensions are treated as YAML, which also accepts JSON.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// LoadFile reads and compiles every scenario in a file.
func LoadFile(path string) ([]scenario.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	return LoadBytes(data, path, FormatFor(path))
}

// LoadBytes decodes and compiles a scenario file. source is
// used in error messages only.
func LoadBytes(
	data []byte,
	source string,
	format Format,
) ([]scenario.Scenario, error) {
	var file File
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", source, err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", source, err)
		}
	}

	if len(file.Scenarios) == 0 {
		return nil, fmt.Errorf("%s: no scenarios defined", source)
	}

	out := make([]scenario.Scenario, 0, len(file.Scenarios))
	var errs []error
	for i, def := range file.Scenarios {
		if def.Category == "" {
			def.Category = file.Category
		}
		s, err := def.Compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("scenarios[%d]: %w", i, err))
			continue
		}
		out = append(out, s)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", source, errors.Join(errs...))
	}
	return out, nil
}

// Expand resolves glob patterns (with ** support) to scenario
// files, sorted and de-duplicated. A pattern without glob
// meta-characters must name an existing file.
func Expand(patterns ...string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no scenario files match %q", pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			if seen[m] || !isScenarioFile(m) {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out, nil
}

func isScenarioFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadInto loads every file matched by patterns into reg, in
// pattern then file order.
func LoadInto(reg Registry, patterns ...string) (int, error) {
	files, err := Expand(patterns...)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, f := range files {
		scenarios, err := LoadFile(f)
		if err != nil {
			return n, err
		}
		for _, s := range scenarios {
			if err := reg.Register(s); err != nil {
				return n, fmt.Errorf("%s: %w", f, err)
			}
			n++
		}
	}
	return n, nil
}
