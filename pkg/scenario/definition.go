package scenario

import (
	"fmt"
	"sort"

	"digital.vasic.apisuite/pkg/assertion"
)

// Definition describes a scenario declaratively. It captures
// everything needed to build a Scenario from a YAML or JSON
// file without Go code.
type Definition struct {
	ID          ID                     `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string                 `json:"category,omitempty" yaml:"category,omitempty"`
	Method      string                 `json:"method" yaml:"method"`
	Path        string                 `json:"path" yaml:"path"`
	Query       []QueryParam           `json:"query,omitempty" yaml:"query,omitempty"`
	Headers     map[string]string      `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body        any                    `json:"body,omitempty" yaml:"body,omitempty"`
	RawBody     *string                `json:"raw_body,omitempty" yaml:"raw_body,omitempty"`
	Expect      []assertion.Definition `json:"expect" yaml:"expect"`
}

// Compile converts the definition into a validated Scenario.
func (d Definition) Compile() (Scenario, error) {
	exps, err := assertion.CompileAll(d.Expect)
	if err != nil {
		return Scenario{}, fmt.Errorf("scenario %q: %w", d.Name, err)
	}

	b := New(d.Name).
		ID(d.ID).
		Description(d.Description).
		Category(d.Category).
		Request(d.Method, d.Path)

	for _, q := range d.Query {
		b = b.Query(q.Key, q.Value)
	}

	keys := make([]string, 0, len(d.Headers))
	for k := range d.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b = b.Header(k, d.Headers[k])
	}

	if d.Body != nil {
		b = b.JSON(d.Body)
	}
	if d.RawBody != nil {
		b = b.Raw(*d.RawBody)
	}

	return b.Expect(exps...).Build()
}

// CompileAll compiles every definition, stopping at the first
// invalid one.
func CompileAll(defs []Definition) ([]Scenario, error) {
	out := make([]Scenario, 0, len(defs))
	for _, d := range defs {
		s, err := d.Compile()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
