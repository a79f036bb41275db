// Package filter decides whether an event path survives the include and
// exclude regular expressions given on the command line.
package filter

import (
	"fmt"
	"regexp"
)

// Rules holds every occurrence of the filter flags, in command-line order.
type Rules struct {
	Include  []string
	IncludeI []string
	Exclude  []string
	ExcludeI []string
}

// ConflictingFilterError is returned when both case variants of one
// polarity are given.
type ConflictingFilterError struct {
	Flag    string
	Variant string
}

func (e *ConflictingFilterError) Error() string {
	return fmt.Sprintf("--%s and --%s cannot both be specified.", e.Flag, e.Variant)
}

// PatternError reports a pattern that does not compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("Invalid regular expression '%s': %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

type rule struct {
	pattern *regexp.Regexp
}

func (r *rule) matches(path string) bool {
	return r != nil && r.pattern.MatchString(path)
}

// Filter is immutable after New.
type Filter struct {
	include  *rule
	exclude  *rule
	warnings []string
}

func New(rules Rules) (*Filter, error) {
	if len(rules.Include) > 0 && len(rules.IncludeI) > 0 {
		return nil, &ConflictingFilterError{Flag: "include", Variant: "includei"}
	}
	if len(rules.Exclude) > 0 && len(rules.ExcludeI) > 0 {
		return nil, &ConflictingFilterError{Flag: "exclude", Variant: "excludei"}
	}

	filter := &Filter{}
	var err error
	filter.include, err = filter.compile("include", rules.Include, false)
	if err != nil {
		return nil, err
	}
	if filter.include == nil {
		filter.include, err = filter.compile("includei", rules.IncludeI, true)
		if err != nil {
			return nil, err
		}
	}
	filter.exclude, err = filter.compile("exclude", rules.Exclude, false)
	if err != nil {
		return nil, err
	}
	if filter.exclude == nil {
		filter.exclude, err = filter.compile("excludei", rules.ExcludeI, true)
		if err != nil {
			return nil, err
		}
	}
	return filter, nil
}

// compile keeps the last of values and records one warning per
// overridden occurrence.
func (f *Filter) compile(flag string, values []string, fold bool) (*rule, error) {
	if len(values) == 0 {
		return nil, nil
	}
	for i := 1; i < len(values); i++ {
		f.warnings = append(f.warnings, fmt.Sprintf("--%s: only the last option will be taken into consideration.", flag))
	}

	source := values[len(values)-1]
	expr := source
	if fold {
		expr = "(?i)" + source
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternError{Pattern: source, Err: err}
	}
	return &rule{pattern: pattern}, nil
}

// Accepts reports whether path passes the include stage and is not
// removed by the exclude stage. A nil Filter accepts everything.
func (f *Filter) Accepts(path string) bool {
	if f == nil {
		return true
	}
	if f.include != nil && !f.include.matches(path) {
		return false
	}
	return !f.exclude.matches(path)
}

// Warnings returns the repeat warnings produced by New, in flag order.
func (f *Filter) Warnings() []string {
	if f == nil {
		return nil
	}
	return append([]string(nil), f.warnings...)
}
