package runner

import (
	"fmt"
	"regexp"
	"strings"

	"digital.vasic.apisuite/pkg/scenario"
)

// RegexList is a set of patterns usable as a repeatable CLI
// flag.
type RegexList struct {
	patterns []*regexp.Regexp
}

// ParseRegexList compiles every pattern.
func ParseRegexList(patterns ...string) (RegexList, error) {
	var r RegexList
	for _, p := range patterns {
		if err := r.Set(p); err != nil {
			return RegexList{}, err
		}
	}
	return r, nil
}

func (r *RegexList) String() string {
	ss := make([]string, 0, len(r.patterns))
	for _, p := range r.patterns {
		ss = append(ss, `"`+p.String()+`"`)
	}
	return strings.Join(ss, " or ")
}

// Set adds a pattern. It is called by the flag parser.
func (r *RegexList) Set(value string) error {
	rx, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid regex %q: %w", value, err)
	}
	r.patterns = append(r.patterns, rx)
	return nil
}

// Type names the flag value type.
func (r *RegexList) Type() string { return "regex" }

// IsDefined reports whether any pattern was given.
func (r RegexList) IsDefined() bool {
	return len(r.patterns) != 0
}

// AnyMatch reports whether s matches one of the patterns.
func (r RegexList) AnyMatch(s string) bool {
	for _, p := range r.patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

// Filters selects scenarios by name, ID or category. A
// scenario runs when it matches Run (or Run is empty) and does
// not match Skip.
type Filters struct {
	Run  RegexList
	Skip RegexList
}

func filterKeys(s scenario.Scenario) []string {
	return []string{s.Name(), string(s.ID()), s.Category() + "/" + s.Name()}
}

// Allow reports whether s should run and, if not, why.
func (f Filters) Allow(s scenario.Scenario) (bool, string) {
	keys := filterKeys(s)
	if f.Run.IsDefined() && !anyKeyMatches(f.Run, keys) {
		return false, "not matching " + f.Run.String()
	}
	if anyKeyMatches(f.Skip, keys) {
		return false, "matching skip " + f.Skip.String()
	}
	return true, ""
}

func anyKeyMatches(r RegexList, keys []string) bool {
	for _, k := range keys {
		if r.AnyMatch(k) {
			return true
		}
	}
	return false
}

// Describe renders the active filters for the console, or ""
// when nothing is filtered.
func (f Filters) Describe() string {
	var lines []string
	if f.Run.IsDefined() {
		lines = append(lines, "skip any not matching "+f.Run.String())
	}
	if f.Skip.IsDefined() {
		lines = append(lines, "skip any matching "+f.Skip.String())
	}
	return strings.Join(lines, "\n")
}
