package scenario

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"digital.vasic.apisuite/pkg/assertion"
)

// Builder assembles a Scenario. It has value semantics: every
// method returns a new Builder and never mutates the receiver,
// so a partially configured builder can be reused as a template.
type Builder struct {
	s       Scenario
	bodySet int
}

// New starts a builder for a scenario with the given name. The
// method defaults to GET.
func New(name string) Builder {
	return Builder{s: Scenario{
		name:   name,
		method: http.MethodGet,
	}}
}

// ID overrides the identifier derived from the name.
func (b Builder) ID(id ID) Builder {
	b.s.id = id
	return b
}

// Description sets the free-text description.
func (b Builder) Description(desc string) Builder {
	b.s.description = desc
	return b
}

// Category sets the report grouping.
func (b Builder) Category(category string) Builder {
	b.s.category = category
	return b
}

// Request sets the method and path.
func (b Builder) Request(method, path string) Builder {
	b.s.method = strings.ToUpper(strings.TrimSpace(method))
	b.s.path = path
	return b
}

// Get is shorthand for Request(GET, path).
func (b Builder) Get(path string) Builder {
	return b.Request(http.MethodGet, path)
}

// Post is shorthand for Request(POST, path).
func (b Builder) Post(path string) Builder {
	return b.Request(http.MethodPost, path)
}

// Put is shorthand for Request(PUT, path).
func (b Builder) Put(path string) Builder {
	return b.Request(http.MethodPut, path)
}

// Patch is shorthand for Request(PATCH, path).
func (b Builder) Patch(path string) Builder {
	return b.Request(http.MethodPatch, path)
}

// Delete is shorthand for Request(DELETE, path).
func (b Builder) Delete(path string) Builder {
	return b.Request(http.MethodDelete, path)
}

// Query appends a query parameter.
func (b Builder) Query(key, value string) Builder {
	q := make([]QueryParam, len(b.s.query), len(b.s.query)+1)
	copy(q, b.s.query)
	b.s.query = append(q, QueryParam{Key: key, Value: value})
	return b
}

// Header sets a request header, replacing earlier values.
func (b Builder) Header(key, value string) Builder {
	h := http.Header{}
	if b.s.header != nil {
		h = b.s.header.Clone()
	}
	h.Set(key, value)
	b.s.header = h
	return b
}

// JSON sets a structured body serialized with encoding/json.
func (b Builder) JSON(v any) Builder {
	b.s.body = JSONBody(v)
	b.bodySet++
	return b
}

// Raw sets a body sent as-is.
func (b Builder) Raw(text string) Builder {
	b.s.body = RawBody(text)
	b.bodySet++
	return b
}

// Expect appends expectations in evaluation order.
func (b Builder) Expect(exps ...assertion.Expectation) Builder {
	out := make([]assertion.Expectation, len(b.s.expectations), len(b.s.expectations)+len(exps))
	copy(out, b.s.expectations)
	b.s.expectations = append(out, exps...)
	return b
}

// Build validates the accumulated fields and returns the
// scenario.
func (b Builder) Build() (Scenario, error) {
	s := b.s
	var errs []error

	if strings.TrimSpace(s.name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if !methodAllowed(s.method) {
		errs = append(errs, fmt.Errorf("unsupported method %q", s.method))
	}
	if strings.TrimSpace(s.path) == "" {
		errs = append(errs, errors.New("path is required"))
	}
	if b.bodySet > 1 {
		errs = append(errs, errors.New("at most one body may be set"))
	}
	body, err := s.body.freeze()
	if err != nil {
		errs = append(errs, err)
	}
	s.body = body
	for i, exp := range s.expectations {
		if err := exp.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("expectation %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		return Scenario{}, fmt.Errorf(
			"invalid scenario %q: %w", s.name, errors.Join(errs...),
		)
	}

	if s.id == "" {
		s.id = Slug(s.name)
	}
	s.query = append([]QueryParam(nil), s.query...)
	s.expectations = append([]assertion.Expectation(nil), s.expectations...)
	if s.header != nil {
		s.header = s.header.Clone()
	}
	return s, nil
}

// MustBuild is like Build but panics on an invalid scenario. It
// is intended for scenarios declared as Go literals.
func (b Builder) MustBuild() Scenario {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}
